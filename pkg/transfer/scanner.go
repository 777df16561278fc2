package transfer

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MusicFormats 是可识别的音乐文件扩展名，固定且不可配置。
var MusicFormats = []string{"flac", "mp3", "wav", "ape", "wma", "ogg", "aac", "aiff"}

// MusicFile 代表一次扫描中找到的一个音乐文件。
type MusicFile struct {
	Path     string
	FileName string
}

// ScanDirectory 列出 dir 下（不递归）扩展名属于 MusicFormats 的文件。
// 扩展名默认区分大小写，caseInsensitive 为 true 时忽略大小写。
func ScanDirectory(dir string, caseInsensitive bool) ([]MusicFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &FilesystemError{Op: "stat", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &FilesystemError{Op: "stat", Path: dir, Err: errors.New("不是目录")}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &FilesystemError{Op: "readdir", Path: dir, Err: err}
	}

	var files []MusicFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isMusicExtension(e.Name(), caseInsensitive) {
			continue
		}
		files = append(files, MusicFile{Path: filepath.Join(dir, e.Name()), FileName: e.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	return files, nil
}

func isMusicExtension(fileName string, caseInsensitive bool) bool {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	for _, f := range MusicFormats {
		if ext == f || (caseInsensitive && strings.EqualFold(ext, f)) {
			return true
		}
	}
	return false
}
