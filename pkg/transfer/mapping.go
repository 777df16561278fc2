package transfer

import "sort"

// NameMapping 是单个目录内 曲目编号 -> 曲名 的映射。
type NameMapping map[string]string

// BuildMapping 解析每个文件名并建立映射。任何一个文件解析失败都会使整个目录失败，不返回部分结果。
//
// 同一编号出现多次时默认后写入者覆盖（已知的不确定行为）；rejectDuplicates 为 true 时改为报错。
func BuildMapping(files []MusicFile, rejectDuplicates bool) (NameMapping, error) {
	mapping := make(NameMapping, len(files))
	owners := make(map[string][]string, len(files))
	for _, f := range files {
		parsed, err := ParseFilename(f.FileName)
		if err != nil {
			return nil, err
		}
		owners[parsed.Prefix] = append(owners[parsed.Prefix], f.FileName)
		if rejectDuplicates && len(owners[parsed.Prefix]) > 1 {
			return nil, &DuplicatePrefixError{Prefix: parsed.Prefix, Files: owners[parsed.Prefix]}
		}
		mapping[parsed.Prefix] = parsed.Name
	}
	return mapping, nil
}

// Keys 返回排好序的曲目编号。
func (m NameMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SameKeys 判断两个映射的编号集合是否完全相同。
func (m NameMapping) SameKeys(other NameMapping) bool {
	if len(m) != len(other) {
		return false
	}
	for k := range m {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Diff 返回 m 中有而 other 中没有的编号 (missing)，以及 other 中多出的编号 (extra)。
func (m NameMapping) Diff(other NameMapping) (missing, extra []string) {
	for _, k := range m.Keys() {
		if _, ok := other[k]; !ok {
			missing = append(missing, k)
		}
	}
	for _, k := range other.Keys() {
		if _, ok := m[k]; !ok {
			extra = append(extra, k)
		}
	}
	return missing, extra
}
