package transfer

import "strings"

// ParsedName 是 "PREFIX NAME.EXT" 形式文件名拆分后的三元组。
type ParsedName struct {
	Prefix    string
	Name      string
	Extension string
}

// FileName 重新拼装出文件名。
func (p ParsedName) FileName() string {
	return p.Prefix + " " + p.Name + "." + p.Extension
}

// ParseFilename 在第一个空格处切出曲目编号，再在剩余部分的最后一个 '.' 处切出曲名和扩展名。
// 除此之外不对内容做任何校验，曲名里可以继续包含空格和点。
func ParseFilename(fileName string) (ParsedName, error) {
	prefix, rest, found := strings.Cut(fileName, " ")
	if !found {
		return ParsedName{}, &MalformedFilenameError{FileName: fileName, Reason: "缺少分隔曲目编号的空格"}
	}
	dot := strings.LastIndex(rest, ".")
	if dot < 0 {
		return ParsedName{}, &MalformedFilenameError{FileName: fileName, Reason: "缺少扩展名"}
	}
	return ParsedName{
		Prefix:    prefix,
		Name:      rest[:dot],
		Extension: rest[dot+1:],
	}, nil
}
