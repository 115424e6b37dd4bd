package match

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Pair is a video and the sidecar subtitle that belongs to it.
type Pair struct {
	VideoPath    string
	SubtitlePath string
}

var videoExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
	".avi": {},
}

const subtitleExtension = ".srt"

var episodePattern = regexp.MustCompile(`(?i)\bs(\d{1,2})[ ._-]?e(\d{1,3})\b`)

var separatorPattern = regexp.MustCompile(`[ ._\-\[\]()]+`)

// FindPairs walks root and pairs every subtitle with its video. A subtitle
// matches by identical normalized base name first (language-code suffixes
// like ".per" are tolerated), then by a season/episode code that is unique
// among the scanned videos. Unmatched subtitles are skipped, not errors.
func FindPairs(root string) ([]Pair, error) {
	var videos, subtitles []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := videoExtensions[ext]; ok {
			videos = append(videos, path)
			return nil
		}
		if ext == subtitleExtension {
			subtitles = append(subtitles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(videos)
	sort.Strings(subtitles)

	byKey := make(map[string]string, len(videos))
	byEpisode := make(map[string][]string)
	for _, video := range videos {
		key := normalizeBase(video)
		byKey[key] = video
		if code := episodeCode(key); code != "" {
			byEpisode[code] = append(byEpisode[code], video)
		}
	}

	pairs := make([]Pair, 0, len(subtitles))
	for _, subtitle := range subtitles {
		if video, ok := matchSubtitle(subtitle, byKey, byEpisode); ok {
			pairs = append(pairs, Pair{VideoPath: video, SubtitlePath: subtitle})
		}
	}
	return pairs, nil
}

func matchSubtitle(subtitle string, byKey map[string]string, byEpisode map[string][]string) (string, bool) {
	key := normalizeBase(subtitle)
	if video, ok := byKey[key]; ok {
		return video, true
	}
	// Tolerate a trailing language token: "movie per" -> "movie".
	if idx := strings.LastIndex(key, " "); idx > 0 {
		tail := key[idx+1:]
		if len(tail) == 2 || len(tail) == 3 {
			if video, ok := byKey[key[:idx]]; ok {
				return video, true
			}
		}
	}
	if code := episodeCode(key); code != "" {
		if candidates := byEpisode[code]; len(candidates) == 1 {
			return candidates[0], true
		}
	}
	return "", false
}

// normalizeBase lowercases the file's base name and collapses separator runs
// to single spaces so "Show.S01E02.1080p" and "show s01e02 1080p" compare
// equal.
func normalizeBase(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	base = separatorPattern.ReplaceAllString(base, " ")
	return strings.TrimSpace(base)
}

// episodeCode extracts a canonical "s01e02" code from a normalized name, or
// empty when the name has none.
func episodeCode(normalized string) string {
	m := episodePattern.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	season := strings.TrimLeft(m[1], "0")
	episode := strings.TrimLeft(m[2], "0")
	if season == "" {
		season = "0"
	}
	if episode == "" {
		episode = "0"
	}
	return "s" + season + "e" + episode
}
