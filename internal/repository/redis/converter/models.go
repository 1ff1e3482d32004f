package converter

type ProductInfoRedisModel struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Unit     *string `json:"unit"`
	Category *string `json:"category"`
	Brand    *string `json:"brand"`
	Stock    int64   `json:"stock"`
	Status   *string `json:"status"`
	Image    *string `json:"image"`
}
