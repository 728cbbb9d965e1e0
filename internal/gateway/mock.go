package gateway

import "github.com/jmehdipour/esim-gateway/internal/model"

// MockDetail is the synthetic document served for ?mock=1. Numbers are
// float64 so the value looks exactly like a decoded upstream response.
func MockDetail(code model.ProductCode) model.ProductDetail {
	label := func(code, title string, price float64) map[string]any {
		return map[string]any{"code": code, "title": title, "repr_price_currency": price}
	}
	return model.ProductDetail{
		"code":          code.String(),
		"name":          "베트남 eSIM (MOCK)",
		"provider_code": "MOCK",
		"options": []any{
			map[string]any{
				"code":  "OP1",
				"title": "매일 1GB",
				"channel_labels": []any{
					map[string]any{
						"channel_id": float64(1),
						"labels": []any{
							label("L3", "3일", 3300),
							label("L5", "5일", 5500),
							label("L7", "7일", 7700),
						},
					},
				},
			},
		},
	}
}
