package ripping

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Summary describes the MKV files in a rip folder.
type Summary struct {
	Dir        string `json:"dir"`
	Files      int    `json:"file_count"`
	TotalBytes int64  `json:"total_bytes"`
}

// Summarize walks dir on the OS filesystem.
func Summarize(dir string) (Summary, error) {
	return SummarizeFS(afero.NewOsFs(), dir)
}

// SummarizeFS counts .mkv files under dir, including subfolders.
func SummarizeFS(fs afero.Fs, dir string) (Summary, error) {
	summary := Summary{Dir: dir}
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), ".mkv") {
			return nil
		}
		summary.Files++
		summary.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}
