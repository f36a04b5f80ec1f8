package classification

import "github.com/Veraticus/sheetsync/internal/model"

// AliasVersion is bumped whenever DefaultAliases changes.
const AliasVersion = 1

// DefaultAliases returns the built-in tab name aliases. Each bucket lists
// Vietnamese names with and without diacritics plus English synonyms.
// Entries are compared after normalization, so case and spacing do not matter.
func DefaultAliases() AliasTable {
	return AliasTable{
		Version: AliasVersion,
		Buckets: map[model.RecordType][]string{
			model.RecordTypeOrders: {
				"donhang", "don hang", "đơn hàng", "đơnhàng",
				"orders", "order", "sales",
				"banhang", "ban hang", "bán hàng",
				"doanhthu", "doanh thu",
			},
			model.RecordTypeExpenses: {
				"chiphi", "chi phi", "chi phí", "chiphí",
				"expenses", "expense", "costs", "cost",
				"chitiêu", "chi tiêu",
			},
			model.RecordTypeInventory: {
				"khohang", "kho hang", "kho hàng", "khohàng",
				"inventory", "stock", "warehouse",
				"tonkho", "tồn kho", "tồnkho", "ton kho",
			},
			model.RecordTypeEmployees: {
				"nhansu", "nhan su", "nhân sự", "nhânsự",
				"employees", "employee", "staff", "personnel",
				"nhanvien", "nhân viên", "nhânviên", "nhan vien",
			},
		},
	}
}
