package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	queues := []string{"videothumb", "video", "image", "audio"}
	for _, q := range queues {
		QueueDepth.WithLabelValues(q)
		ItemsEnqueued.WithLabelValues(q)
	}

	profiles := map[string][]string{
		"video": {"thumb", "360", "720", "1080"},
		"image": {"thumb", "720", "1080"},
		"audio": {"std"},
	}
	for kind, names := range profiles {
		for _, p := range names {
			TranscodesTotal.WithLabelValues(kind, p, "success")
			TranscodesTotal.WithLabelValues(kind, p, "error")
			TranscodeDuration.WithLabelValues(kind, p)
		}
	}

	for _, cmd := range []string{"ffmpeg", "ffprobe"} {
		SubprocessesStarted.WithLabelValues(cmd)
	}

	for _, cat := range []string{"in_flight", "queued", "unpublished"} {
		LostWork.WithLabelValues(cat)
	}

	EventsDropped.WithLabelValues("transcode.finished")
}
