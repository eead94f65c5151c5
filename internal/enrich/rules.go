package enrich

import (
	"regexp"
	"strings"

	"github.com/RecoveryAshes/ytscraper/internal/models"
)

// Rule 一条有序匹配规则,第一个捕获组为候选值
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Match 返回候选值,未匹配时ok为false
func (r Rule) Match(text string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// SubscriberRules 订阅数规则表,由严格到宽松
var SubscriberRules = []Rule{
	{"phrase", regexp.MustCompile(`(?i)([\d,.]+ ?[KMB]?) subscribers?`)},
	{"phrase_singular", regexp.MustCompile(`(?i)([\d,.]+ ?[KMB]?) subscriber`)},
	{"json_count_text", regexp.MustCompile(`(?i)"subscriberCountText".*?"([\d,.]+ ?[KMB]?) subscribers?"`)},
	{"json_count", regexp.MustCompile(`(?i)"subscriberCount".*?"([\d,.]+ ?[KMB]?)"`)},
	{"bare_number", regexp.MustCompile(`(?i)(\d+\.?\d* ?[KMB]?) subscribers?`)},
}

// HandleRules handle规则表
var HandleRules = []Rule{
	{"canonical_url", regexp.MustCompile(`(?i)canonicalChannelUrl.*?/(@[a-zA-Z0-9._-]+)`)},
	{"vanity_url", regexp.MustCompile(`(?i)vanityChannelUrl.*?/(@[a-zA-Z0-9._-]+)`)},
	{"quoted", regexp.MustCompile(`"@([a-zA-Z0-9._-]+)"`)},
	{"handle_field", regexp.MustCompile(`(?i)handle["':\s]*"?@?([a-zA-Z0-9._-]+)"?`)},
	{"bare", regexp.MustCompile(`@([a-zA-Z0-9._-]+)(?:\s|$|"|,|<|>)`)},
}

var subscriberShape = regexp.MustCompile(`(?i)^[\d,.]+ ?[KMB]? subscribers?$`)

// ExtractSubscribers 依次尝试订阅数规则,返回第一个形如 "<数字+单位> subscribers" 的结果
func ExtractSubscribers(text string) string {
	for _, rule := range SubscriberRules {
		candidate, ok := rule.Match(text)
		if !ok {
			continue
		}
		if candidate = strings.TrimSpace(candidate); candidate == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(candidate), "subscriber") {
			candidate += " subscribers"
		}
		if subscriberShape.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

// ExtractHandle 依次尝试handle规则
// 含 "." 但不含 "_" 的候选视为邮箱或域名误匹配,继续尝试下一条
func ExtractHandle(text string) string {
	for _, rule := range HandleRules {
		candidate, ok := rule.Match(text)
		if !ok || candidate == "" || candidate == "null" {
			continue
		}
		if !strings.HasPrefix(candidate, "@") {
			candidate = "@" + candidate
		}
		if strings.Contains(candidate, ".") && !strings.Contains(candidate, "_") {
			continue
		}
		return candidate
	}
	return ""
}

// ExtractChannelInfo 从频道页原始文本中提取订阅数和handle
func ExtractChannelInfo(text string) models.ChannelInfo {
	return models.ChannelInfo{
		Subscribers: ExtractSubscribers(text),
		Handle:      ExtractHandle(text),
	}
}
