package sources

// YouTube implementation is split across three files by responsibility:
//   innertube.go  — Innertube API types, constants, and low-level HTTP primitives
//   transcript.go — timed transcript fetching (watch-page scrape + ANDROID player fallback)
//   video.go      — video ID extraction and metadata (oEmbed + player videoDetails)
