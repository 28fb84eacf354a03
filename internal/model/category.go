package model

// Category 项目分类
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Categories 固定的分类列表
var Categories = []Category{
	{ID: "technology", Name: "Технологии", Icon: "💻"},
	{ID: "science", Name: "Наука", Icon: "🔬"},
	{ID: "art", Name: "Искусство", Icon: "🎨"},
	{ID: "education", Name: "Образование", Icon: "📚"},
	{ID: "ecology", Name: "Экология", Icon: "🌱"},
	{ID: "sport", Name: "Спорт", Icon: "⚽"},
	{ID: "social", Name: "Социальный", Icon: "🤝"},
	{ID: "other", Name: "Другое", Icon: "📋"},
}

// CategoryAll 不按分类过滤
const CategoryAll = "all"

// LookupCategory 按 ID 查找分类
func LookupCategory(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryName 分类名称，未知分类归为“Другое”
func CategoryName(id string) string {
	if c, ok := LookupCategory(id); ok {
		return c.Name
	}
	return "Другое"
}

// CategoryIcon 分类图标
func CategoryIcon(id string) string {
	if c, ok := LookupCategory(id); ok {
		return c.Icon
	}
	return "📋"
}
