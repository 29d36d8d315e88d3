package woocommerce

// 商品载荷常量
const (
	ProductTypeSimple = "simple"
	StatusPublish     = "publish"
	StatusDraft       = "draft"

	shortDescriptionLimit = 250
)

// ProductPayload 出站商品载荷
type ProductPayload struct {
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	Images           []Image    `json:"images"`
	MetaData         []MetaData `json:"meta_data"`
}

// Image 商品图片
type Image struct {
	Src string `json:"src"`
}

// MetaData 附加属性
type MetaData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// Product 远端商品（只取用到的字段）
type Product struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	StockStatus  string `json:"stock_status"`
	Permalink    string `json:"permalink"`
	DateModified string `json:"date_modified"`
}

// NewProductPayload 按通用规则组装载荷
// images 为空时输出 []，不是 null
func NewProductPayload(name, description, imageURL string, published bool, meta ...MetaData) *ProductPayload {
	status := StatusDraft
	if published {
		status = StatusPublish
	}
	images := []Image{}
	if imageURL != "" {
		images = append(images, Image{Src: imageURL})
	}
	if meta == nil {
		meta = []MetaData{}
	}
	return &ProductPayload{
		Name:             name,
		Type:             ProductTypeSimple,
		Status:           status,
		Description:      description,
		ShortDescription: ShortDescription(description),
		Images:           images,
		MetaData:         meta,
	}
}

// ShortDescription 取描述前 250 个字符（按 rune 计）
func ShortDescription(description string) string {
	r := []rune(description)
	if len(r) <= shortDescriptionLimit {
		return description
	}
	return string(r[:shortDescriptionLimit])
}
