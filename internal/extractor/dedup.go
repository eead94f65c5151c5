package extractor

import "github.com/RecoveryAshes/ytscraper/internal/models"

// Dedupe 按首次出现顺序去重
// 去重键为videoId,其次为标题链接; 键为空的记录无法判定身份,全部保留
func Dedupe(records []models.RawRecord) []models.RawRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.RawRecord, 0, len(records))

	for _, r := range records {
		key := r.IdentityKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
