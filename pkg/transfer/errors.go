package transfer

import (
	"fmt"
	"strings"
)

// FilesystemError 表示目录不存在、不可读，或者重命名目标冲突等文件系统错误。
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("文件系统错误 (%s %s): %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// MalformedFilenameError 表示文件名不符合 "PREFIX NAME.EXT" 模式。
type MalformedFilenameError struct {
	FileName string
	Reason   string
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("文件名格式错误 '%s': %s", e.FileName, e.Reason)
}

// InputValidationError 在访问文件系统之前报告调用方传入的参数问题。
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("参数无效 %s: %s", e.Field, e.Reason)
}

// MismatchError 只在严格模式下返回：源目录和目标目录的曲目编号集合不一致。
type MismatchError struct {
	Missing []string // 源目录有、目标目录没有
	Extra   []string // 目标目录有、源目录没有
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("曲目编号不一致: 目标目录缺少 [%s]，多出 [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Extra, ", "))
}

// DuplicatePrefixError 在开启 rejectDuplicates 时报告同一目录内重复的曲目编号。
type DuplicatePrefixError struct {
	Prefix string
	Files  []string
}

func (e *DuplicatePrefixError) Error() string {
	return fmt.Sprintf("曲目编号 '%s' 重复: %s", e.Prefix, strings.Join(e.Files, ", "))
}
