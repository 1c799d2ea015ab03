package resume

import (
	"strings"
	"unicode"
)

// DefaultFileName 在标题无法生成可用文件名时使用。
const DefaultFileName = "resume.pdf"

const maxFileNameRunes = 120

// ExportFileName 把简历标题转为下载文件名。
func ExportFileName(title string) string {
	var b strings.Builder
	lastUnderscore := false
	count := 0
	for _, r := range strings.TrimSpace(title) {
		if count >= maxFileNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if lastUnderscore {
				continue
			}
			b.WriteRune('_')
			lastUnderscore = true
		}
		count++
	}

	name := strings.Trim(b.String(), "_.")
	if name == "" {
		return DefaultFileName
	}
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name
	}
	return name + ".pdf"
}
