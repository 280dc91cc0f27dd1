// Package download wraps yt-dlp to fetch audio streams from remote URLs.
package download
