package logger

// LogDownload logs the outcome of a single asset download
func LogDownload(contentID, url, assetType string, success bool, err error) {
	fields := map[string]interface{}{
		"content_id": contentID,
		"url":        url,
		"asset_type": assetType,
		"success":    success,
	}

	l := GetLogger().WithFields(fields)

	if err != nil {
		l.WithError(err).Error("Download failed")
	} else if success {
		l.Info("Download completed")
	} else {
		l.Warn("Download skipped")
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}
