package places

import "sort"

// categoryMapping maps Vietmap category codes to [parent, child] labels.
// Codes with a single label are their own parent.
var categoryMapping = map[string][]string{
	"1001":    {"Quán Giải Khát"},
	"1002":    {"Nhà Hàng Quán Ăn"},
	"1003":    {"Khu Ăn Uống"},
	"2000":    {"Khách Sạn", "Nhà Nghỉ"},
	"2001":    {"Khách Sạn"},
	"2002":    {"Nhà Nghỉ"},
	"3004":    {"Cửa Hàng"},
	"4004":    {"Du Lịch"},
	"4001-3":  {"Văn Hóa", "Trung Tâm Văn Hóa Thể Thao"},
	"4001-4":  {"Văn Hóa", "Thư Viện"},
	"4001-5":  {"Văn Hóa", "Bảo Tàng"},
	"4002-2":  {"Giải Trí", "Công Viên"},
	"4002-6":  {"Giải Trí", "Bar Pub"},
	"4002-10": {"Giải Trí", "Bida"},
	"4002-11": {"Giải Trí", "Karaoke"},
	"4002-14": {"Giải Trí", "Khu Vui Chơi Giải Trí"},
	"4003-1":  {"Làm Đẹp", "Hair Salon"},
	"4003-2":  {"Làm Đẹp", "Spa"},
	"4003-3":  {"Làm Đẹp", "Xông Hơi Massage"},
	"4004-1":  {"Du Lịch", "Di Tích Văn Hóa Lịch Sử"},
	"4004-2":  {"Du Lịch", "Danh Lam Thắng Cảnh"},
	"4004-3":  {"Du Lịch", "Vườn Quốc Gia"},
	"4004-5":  {"Du Lịch", "Khu Du Lịch"},
	"4004-6":  {"Du Lịch", "Bãi Biển"},
	"4004-7":  {"Du Lịch", "Địa Danh"},
	"4004-8":  {"Du Lịch", "Điểm Du Lịch"},
}

// CategoryLabel returns the display label for a category code: the child
// label when there is one, the parent otherwise, the code itself when the
// code is unknown.
func CategoryLabel(code string) string {
	labels, ok := categoryMapping[code]
	if !ok {
		return code
	}
	if len(labels) > 1 {
		return labels[1]
	}
	return labels[0]
}

// CategoryKeywords returns the search keywords for a set of category codes,
// in first-seen order with duplicates removed. Unknown codes contribute
// nothing.
func CategoryKeywords(codes []string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, code := range codes {
		for _, kw := range categoryMapping[code] {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// CategoryGroup is one parent label with its selectable children.
type CategoryGroup struct {
	Parent string         `json:"parent"`
	Items  []CategoryItem `json:"items"`
}

type CategoryItem struct {
	Code  string `json:"id"`
	Label string `json:"label"`
}

// CategoryGroups returns the full category tree grouped by parent label,
// parents sorted alphabetically, for the category picker.
func CategoryGroups() []CategoryGroup {
	byParent := make(map[string][]CategoryItem)
	for code, labels := range categoryMapping {
		parent := labels[0]
		child := parent
		if len(labels) > 1 {
			child = labels[1]
		}
		byParent[parent] = append(byParent[parent], CategoryItem{Code: code, Label: child})
	}

	parents := make([]string, 0, len(byParent))
	for parent := range byParent {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	groups := make([]CategoryGroup, 0, len(parents))
	for _, parent := range parents {
		items := byParent[parent]
		sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })
		groups = append(groups, CategoryGroup{Parent: parent, Items: items})
	}
	return groups
}
