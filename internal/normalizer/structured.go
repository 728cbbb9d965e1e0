package normalizer

import "github.com/jmehdipour/esim-gateway/internal/model"

const defaultOptionLabel = "옵션"

var (
	optionLabelKeys = []string{"title", "name", "description", "code"}
	labelPriceKeys  = []string{
		"repr_price_currency",
		"net_price_currency",
		"markup_amount_currency",
		"price",
		"salePrice",
		"amount",
		"fee",
		"sellingPrice",
	}
	labelDayKeys = []string{"days", "period", "validDays"}
)

// structured reads the canonical Apollo shape:
//
//	{options: [{title, channel_labels: [{labels: [...]}], labels: [...]}]}
//
// One DataOption is produced per source option that has at least one priced label.
func structured(root map[string]any) []model.DataOption {
	options, _ := root["options"].([]any)
	if len(options) == 0 {
		return nil
	}

	var out []model.DataOption
	for _, raw := range options {
		opt, _ := raw.(map[string]any)

		label := defaultOptionLabel
		if v, ok := firstPresent(opt, optionLabelKeys...); ok {
			label = asString(v)
		}

		items := labelItems(opt)
		plans := make([]model.Plan, 0, len(items))
		for _, it := range items {
			lb, _ := it.(map[string]any)
			price, ok := labelPrice(lb)
			if !ok {
				continue
			}
			plans = append(plans, model.Plan{Days: labelDays(lb), Price: price})
		}

		if len(plans) > 0 {
			sortPlans(plans)
			out = append(out, model.DataOption{Data: label, Plans: plans})
		}
	}
	return out
}

// labelItems prefers channel_labels[*].labels and falls back to labels.
func labelItems(opt map[string]any) []any {
	var items []any
	channels, _ := opt["channel_labels"].([]any)
	for _, ch := range channels {
		chm, _ := ch.(map[string]any)
		if lbs, ok := chm["labels"].([]any); ok {
			items = append(items, lbs...)
		}
	}
	if len(items) == 0 {
		if lbs, ok := opt["labels"].([]any); ok {
			items = append(items, lbs...)
		}
	}
	return items
}

func labelPrice(lb map[string]any) (float64, bool) {
	v, ok := firstPresent(lb, labelPriceKeys...)
	if !ok {
		return 0, false
	}
	return parseNumber(v)
}

func labelDays(lb map[string]any) int {
	if v, ok := firstPresent(lb, "title", "code"); ok {
		if s, isStr := v.(string); isStr {
			if d, ok := daysFromText(s); ok {
				return d
			}
		}
	}
	for _, k := range labelDayKeys {
		if d, ok := parseNumber(lb[k]); ok {
			return toDays(d)
		}
	}
	return 0
}
