package transfer

import (
	"Tracks_Transfer/config"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Options 控制一次迁移的行为，零值即原始行为：编号不一致时静默跳过、重复编号后者覆盖。
type Options struct {
	// Strict 为 true 时编号集合不一致返回 MismatchError，而不是静默不做任何事。
	Strict bool
	// RejectDuplicates 为 true 时同一目录内重复的编号返回 DuplicatePrefixError。
	RejectDuplicates bool
	// CaseInsensitiveExt 扫描时忽略扩展名大小写 (MP3 / mp3)。
	CaseInsensitiveExt bool
	// ASCIINames 把复制过来的曲名音译为 ASCII。
	ASCIINames bool
	// DryRun 只生成重命名计划，不修改任何文件。
	DryRun bool
}

// OptionsFromConfig 把配置文件中的 transfer 段转换为 Options。
func OptionsFromConfig(cfg config.TransferConfig) Options {
	return Options{
		Strict:             cfg.Strict,
		RejectDuplicates:   cfg.RejectDuplicates,
		CaseInsensitiveExt: cfg.CaseInsensitiveExt,
		ASCIINames:         cfg.ASCIINames,
		DryRun:             cfg.DryRun,
	}
}

// Rename 是重命名计划中的一项。
type Rename struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Unchanged bool   `json:"unchanged"`
}

// Result 汇总一次迁移（或预览）的结果。
type Result struct {
	SourceDir string   `json:"sourceDir"`
	TargetDir string   `json:"targetDir"`
	Mismatch  bool     `json:"mismatch"`
	Missing   []string `json:"missing,omitempty"`
	Extra     []string `json:"extra,omitempty"`
	Renames   []Rename `json:"renames"`
	Applied   int      `json:"applied"`
	DryRun    bool     `json:"dryRun"` // 为 true 时只是计划，没有修改任何文件
}

// Transferer 把源目录中的曲名按曲目编号迁移到目标目录的文件上。
// 它本身是同步的，不持有跨调用的状态；同一对目录的并发调用结果未定义。
type Transferer struct {
	opts   Options
	logger *slog.Logger
}

func NewTransferer(opts Options, logger *slog.Logger) *Transferer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transferer{opts: opts, logger: logger}
}

// Run 执行完整流程：扫描、建映射、比较编号集合、生成计划、逐个重命名。
//
// 编号集合不一致时（非严格模式）返回 Mismatch=true 的结果且不报错。
// 重命名中途失败时已完成的重命名不会回滚，错误直接返回，Result.Applied 给出已完成的数量。
func (t *Transferer) Run(sourceDir, targetDir string) (*Result, error) {
	res, err := t.Plan(sourceDir, targetDir)
	if res != nil {
		res.DryRun = t.opts.DryRun
	}
	if err != nil || res.Mismatch || t.opts.DryRun {
		return res, err
	}

	for _, r := range res.Renames {
		if r.Unchanged {
			continue
		}
		if err := renameNoReplace(r.From, r.To); err != nil {
			t.logger.Error("重命名失败，剩余文件保持原名", "from", r.From, "to", r.To, "applied", res.Applied, "error", err)
			return res, err
		}
		res.Applied++
		t.logger.Debug("文件已重命名", "from", filepath.Base(r.From), "to", filepath.Base(r.To))
	}
	t.logger.Info("曲名迁移完成", "target", res.TargetDir, "renamed", res.Applied, "total", len(res.Renames))
	return res, nil
}

// Plan 完成 Run 的全部检查并返回重命名计划，但不修改任何文件。
// 目标路径已被其他文件占用、或两个文件会被重命名为同一路径时返回 FilesystemError。
func (t *Transferer) Plan(sourceDir, targetDir string) (*Result, error) {
	if err := ValidateDirs(sourceDir, targetDir); err != nil {
		return nil, err
	}
	res := &Result{SourceDir: sourceDir, TargetDir: targetDir, DryRun: true}

	sourceFiles, err := ScanDirectory(sourceDir, t.opts.CaseInsensitiveExt)
	if err != nil {
		return nil, err
	}
	targetFiles, err := ScanDirectory(targetDir, t.opts.CaseInsensitiveExt)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("目录扫描完成", "source", sourceDir, "sourceFiles", len(sourceFiles), "target", targetDir, "targetFiles", len(targetFiles))

	mappingSource, err := BuildMapping(sourceFiles, t.opts.RejectDuplicates)
	if err != nil {
		return nil, fmt.Errorf("源目录 %s: %w", sourceDir, err)
	}
	mappingTarget, err := BuildMapping(targetFiles, t.opts.RejectDuplicates)
	if err != nil {
		return nil, fmt.Errorf("目标目录 %s: %w", targetDir, err)
	}

	if !mappingSource.SameKeys(mappingTarget) {
		res.Mismatch = true
		res.Missing, res.Extra = mappingSource.Diff(mappingTarget)
		if t.opts.Strict {
			return res, &MismatchError{Missing: res.Missing, Extra: res.Extra}
		}
		t.logger.Warn("曲目编号不一致，跳过重命名", "missing", res.Missing, "extra", res.Extra)
		return res, nil
	}

	claimed := make(map[string]string, len(targetFiles))
	for _, f := range targetFiles {
		parsed, err := ParseFilename(f.FileName)
		if err != nil {
			return nil, err
		}
		parsed.Name = t.trackName(mappingSource[parsed.Prefix])
		dest := filepath.Join(targetDir, parsed.FileName())

		if owner, ok := claimed[dest]; ok {
			return nil, &FilesystemError{Op: "plan", Path: dest,
				Err: fmt.Errorf("%w: '%s' 和 '%s' 会被重命名为同一个文件", os.ErrExist, filepath.Base(owner), f.FileName)}
		}
		claimed[dest] = f.Path

		r := Rename{From: f.Path, To: dest, Unchanged: dest == f.Path}
		if !r.Unchanged {
			if err := checkDestination(f.Path, dest); err != nil {
				return nil, err
			}
		}
		res.Renames = append(res.Renames, r)
	}
	return res, nil
}

func (t *Transferer) trackName(name string) string {
	if !t.opts.ASCIINames {
		return name
	}
	ascii := unidecode.Unidecode(name)
	return strings.NewReplacer("/", " ", "\\", " ").Replace(ascii)
}

// ValidateDirs 在访问文件系统之前检查两个目录参数都不为空。
func ValidateDirs(sourceDir, targetDir string) error {
	if err := validateDir("sourceDir", sourceDir); err != nil {
		return err
	}
	return validateDir("targetDir", targetDir)
}

func validateDir(field, dir string) error {
	if strings.TrimSpace(dir) == "" {
		return &InputValidationError{Field: field, Reason: "目录路径为空"}
	}
	return nil
}

// checkDestination 确认 dest 没有被 src 以外的文件占用。
// 大小写不敏感的文件系统上 dest 可能就是 src 本身，这种情况允许重命名。
func checkDestination(src, dest string) error {
	destInfo, err := os.Lstat(dest)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &FilesystemError{Op: "stat", Path: dest, Err: err}
	}
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return &FilesystemError{Op: "stat", Path: src, Err: err}
	}
	if os.SameFile(srcInfo, destInfo) {
		return nil
	}
	return &FilesystemError{Op: "rename", Path: dest, Err: os.ErrExist}
}

// rename 在测试中可替换，用来模拟中途失败。
var rename = os.Rename

// renameNoReplace 与 os.Rename 不同，目标已存在时不会覆盖。
func renameNoReplace(src, dest string) error {
	if err := checkDestination(src, dest); err != nil {
		return err
	}
	if err := rename(src, dest); err != nil {
		return &FilesystemError{Op: "rename", Path: src, Err: err}
	}
	return nil
}
