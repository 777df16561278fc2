package transfer

import (
	"Tracks_Transfer/config"
	"Tracks_Transfer/pkg/logger"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func newDirs(t *testing.T, source, target []string) (string, string) {
	t.Helper()
	src, dst := t.TempDir(), t.TempDir()
	writeFiles(t, src, source...)
	writeFiles(t, dst, target...)
	return src, dst
}

func TestRun_CopiesNamesKeepsExtensions(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "02 Verse.flac"},
		[]string{"01 Oldname.mp3", "02 Other.flac"},
	)
	res, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := listDir(t, dst), []string{"01 Intro.mp3", "02 Verse.flac"}; !reflect.DeepEqual(got, want) {
		t.Errorf("target = %v, want %v", got, want)
	}
	if res.Mismatch || res.Applied != 2 || len(res.Renames) != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_ExtensionComesFromTarget(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.flac", "02 Verse.flac", "cover.jpg"},
		[]string{"01 track01.mp3", "02 track02.ogg", "folder.jpg"},
	)
	if _, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst); err != nil {
		t.Fatal(err)
	}
	want := []string{"01 Intro.mp3", "02 Verse.ogg", "folder.jpg"}
	if got := listDir(t, dst); !reflect.DeepEqual(got, want) {
		t.Errorf("target = %v, want %v", got, want)
	}
	b, err := os.ReadFile(filepath.Join(dst, "01 Intro.mp3"))
	if err != nil || string(b) != "01 track01.mp3" {
		t.Errorf("renamed file content = %q, %v; want original target content", b, err)
	}
}

func TestRun_MismatchIsSilentNoOp(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "02 Verse.mp3"},
		[]string{"01 a.mp3", "03 c.mp3"},
	)
	before := listDir(t, dst)
	res, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst)
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if !res.Mismatch {
		t.Error("Mismatch = false, want true")
	}
	if !reflect.DeepEqual(res.Missing, []string{"02"}) || !reflect.DeepEqual(res.Extra, []string{"03"}) {
		t.Errorf("Missing = %v, Extra = %v", res.Missing, res.Extra)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, before) {
		t.Errorf("target changed: %v -> %v", before, got)
	}
}

func TestRun_MismatchStrict(t *testing.T) {
	src, dst := newDirs(t, []string{"01 Intro.mp3"}, []string{"01 a.mp3", "02 b.mp3"})
	before := listDir(t, dst)
	_, err := NewTransferer(Options{Strict: true}, logger.Discard()).Run(src, dst)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want MismatchError", err)
	}
	if !reflect.DeepEqual(mismatch.Extra, []string{"02"}) || len(mismatch.Missing) != 0 {
		t.Errorf("MismatchError = %+v", mismatch)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, before) {
		t.Errorf("target changed: %v -> %v", before, got)
	}
}

func TestRun_Idempotent(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "02 Verse.flac"},
		[]string{"01 Oldname.mp3", "02 Other.flac"},
	)
	tr := NewTransferer(Options{}, logger.Discard())
	if _, err := tr.Run(src, dst); err != nil {
		t.Fatal(err)
	}
	once := listDir(t, dst)
	res, err := tr.Run(src, dst)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if res.Applied != 0 {
		t.Errorf("second run Applied = %d, want 0", res.Applied)
	}
	for _, r := range res.Renames {
		if !r.Unchanged {
			t.Errorf("rename %+v should be unchanged", r)
		}
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, once) {
		t.Errorf("target after second run = %v, want %v", got, once)
	}
}

func TestRun_MalformedAnywhereAborts(t *testing.T) {
	tests := []struct {
		name           string
		source, target []string
	}{
		{"in source", []string{"01 Intro.mp3", "trackonly.mp3"}, []string{"01 a.mp3"}},
		{"in target", []string{"01 Intro.mp3"}, []string{"01 a.mp3", "trackonly.mp3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := newDirs(t, tt.source, tt.target)
			before := listDir(t, dst)
			_, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst)
			var malformed *MalformedFilenameError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want MalformedFilenameError", err)
			}
			if malformed.FileName != "trackonly.mp3" {
				t.Errorf("FileName = %q", malformed.FileName)
			}
			if got := listDir(t, dst); !reflect.DeepEqual(got, before) {
				t.Errorf("target changed: %v -> %v", before, got)
			}
		})
	}
}

func TestRun_NonMusicFilesIgnored(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "cover.jpg", "99 Booklet.pdf"},
		[]string{"01 a.mp3", "notes"},
	)
	if _, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst); err != nil {
		t.Fatal(err)
	}
	if got, want := listDir(t, dst), []string{"01 Intro.mp3", "notes"}; !reflect.DeepEqual(got, want) {
		t.Errorf("target = %v, want %v", got, want)
	}
}

func TestRun_InputValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, source, target, field string
	}{
		{"empty source", "", dir, "sourceDir"},
		{"blank target", dir, "   ", "targetDir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransferer(Options{}, logger.Discard()).Run(tt.source, tt.target)
			var inputErr *InputValidationError
			if !errors.As(err, &inputErr) {
				t.Fatalf("error = %v, want InputValidationError", err)
			}
			if inputErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", inputErr.Field, tt.field)
			}
		})
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := NewTransferer(Options{}, logger.Discard()).Run(filepath.Join(dir, "nope"), dir)
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("error = %v, want FilesystemError", err)
	}
}

func TestRun_DestinationConflictDetectedBeforeRenaming(t *testing.T) {
	// 目标目录中同一编号、同一扩展名的两个文件会被重命名为同一路径。
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "02 Verse.mp3"},
		[]string{"01 a.mp3", "01 b.mp3", "02 c.mp3"},
	)
	before := listDir(t, dst)
	_, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst)
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("error = %v, want FilesystemError", err)
	}
	if !errors.Is(err, os.ErrExist) {
		t.Errorf("error = %v, want it to wrap os.ErrExist", err)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, before) {
		t.Errorf("target changed: %v -> %v", before, got)
	}
}

func TestRun_DestinationOccupied(t *testing.T) {
	src, dst := newDirs(t, []string{"01 Intro.mp3"}, []string{"01 a.mp3"})
	// 扫描会忽略目录，但它仍然占用了目标路径。
	if err := os.Mkdir(filepath.Join(dst, "01 Intro.mp3"), 0755); err != nil {
		t.Fatal(err)
	}
	before := listDir(t, dst)
	_, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst)
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("error = %v, want FilesystemError", err)
	}
	if !errors.Is(err, os.ErrExist) {
		t.Errorf("error = %v, want it to wrap os.ErrExist", err)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, before) {
		t.Errorf("target changed: %v -> %v", before, got)
	}
}

func TestRun_RejectDuplicates(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "01 Intro (alt).flac"},
		[]string{"01 a.mp3"},
	)
	_, err := NewTransferer(Options{RejectDuplicates: true}, logger.Discard()).Run(src, dst)
	var dup *DuplicatePrefixError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want DuplicatePrefixError", err)
	}
}

func TestRun_FailureMidwayKeepsEarlierRenames(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Intro.mp3", "02 Verse.mp3", "03 Outro.mp3"},
		[]string{"01 a.mp3", "02 b.mp3", "03 c.mp3"},
	)
	calls := 0
	rename = func(from, to string) error {
		calls++
		if calls == 2 {
			return os.ErrPermission
		}
		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	res, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst)
	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) || !errors.Is(err, os.ErrPermission) {
		t.Fatalf("Run() error = %v, want FilesystemError wrapping ErrPermission", err)
	}
	if fsErr.Path != filepath.Join(dst, "02 b.mp3") {
		t.Errorf("FilesystemError.Path = %q", fsErr.Path)
	}
	if res == nil || res.Applied != 1 || len(res.Renames) != 3 {
		t.Fatalf("result = %+v, want Applied 1 of 3", res)
	}
	want := []string{"01 Intro.mp3", "02 b.mp3", "03 c.mp3"}
	if got := listDir(t, dst); !reflect.DeepEqual(got, want) {
		t.Errorf("target = %v, want %v", got, want)
	}
}

func TestRun_DryRun(t *testing.T) {
	src, dst := newDirs(t, []string{"01 Intro.mp3"}, []string{"01 a.mp3"})
	res, err := NewTransferer(Options{DryRun: true}, logger.Discard()).Run(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if !res.DryRun || res.Applied != 0 {
		t.Errorf("result = %+v", res)
	}
	want := []Rename{{From: filepath.Join(dst, "01 a.mp3"), To: filepath.Join(dst, "01 Intro.mp3")}}
	if !reflect.DeepEqual(res.Renames, want) {
		t.Errorf("Renames = %+v, want %+v", res.Renames, want)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, []string{"01 a.mp3"}) {
		t.Errorf("dry run changed target: %v", got)
	}
}

func TestRun_ASCIINames(t *testing.T) {
	src, dst := newDirs(t,
		[]string{"01 Déjà Vu.flac", "02 Über Alles.flac"},
		[]string{"01 a.mp3", "02 b.mp3"},
	)
	if _, err := NewTransferer(Options{ASCIINames: true}, logger.Discard()).Run(src, dst); err != nil {
		t.Fatal(err)
	}
	want := []string{"01 Deja Vu.mp3", "02 Uber Alles.mp3"}
	if got := listDir(t, dst); !reflect.DeepEqual(got, want) {
		t.Errorf("target = %v, want %v", got, want)
	}
}

func TestRun_CaseInsensitiveExtensions(t *testing.T) {
	src, dst := newDirs(t, []string{"01 Intro.FLAC"}, []string{"01 a.MP3"})

	if _, err := NewTransferer(Options{}, logger.Discard()).Run(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, []string{"01 a.MP3"}) {
		t.Errorf("case-sensitive run renamed files: %v", got)
	}

	if _, err := NewTransferer(Options{CaseInsensitiveExt: true}, logger.Discard()).Run(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, []string{"01 Intro.MP3"}) {
		t.Errorf("target = %v, want [01 Intro.MP3]", got)
	}
}

func TestPlan_DoesNotRename(t *testing.T) {
	src, dst := newDirs(t, []string{"01 Intro.mp3", "02 Verse.mp3"}, []string{"01 a.mp3", "02 Verse.mp3"})
	res, err := NewTransferer(Options{}, logger.Discard()).Plan(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Renames) != 2 || res.Renames[0].Unchanged || !res.Renames[1].Unchanged {
		t.Errorf("Renames = %+v", res.Renames)
	}
	if got := listDir(t, dst); !reflect.DeepEqual(got, []string{"01 a.mp3", "02 Verse.mp3"}) {
		t.Errorf("Plan changed target: %v", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.TransferConfig{
		SourceDir: "/a", TargetDir: "/b",
		Strict: true, RejectDuplicates: true, CaseInsensitiveExt: true, ASCIINames: true, DryRun: true,
	})
	want := Options{Strict: true, RejectDuplicates: true, CaseInsensitiveExt: true, ASCIINames: true, DryRun: true}
	if opts != want {
		t.Errorf("OptionsFromConfig() = %+v, want %+v", opts, want)
	}
}
