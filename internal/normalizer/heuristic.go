package normalizer

import (
	"sort"

	"github.com/jmehdipour/esim-gateway/internal/model"
)

const defaultGroupLabel = "기본"

var (
	candidateArrayKeys = []string{
		"plans",
		"planList",
		"items",
		"itemList",
		"options",
		"optionList",
		"productOptions",
		"productOptionList",
		"dataOptions",
		"dataOptionList",
		"priceList",
		"feeList",
	}
	itemLabelKeys = []string{"data", "dataLabel", "dataOptionName", "optionName", "quotaTypeName"}
	itemDayKeys   = []string{"days", "period", "periodDays", "useDays", "validDays"}
	itemPriceKeys = []string{"price", "salePrice", "amount", "fee", "sellingPrice"}
)

// heuristic flattens every plausible array on the root document into flat
// price items and groups them by their data label.
func heuristic(root map[string]any) []model.DataOption {
	var arrays [][]any
	for _, k := range candidateArrayKeys {
		if arr, ok := root[k].([]any); ok {
			arrays = append(arrays, arr)
		}
	}
	if len(arrays) == 0 {
		keys := make([]string, 0, len(root))
		for k := range root {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if arr, ok := root[k].([]any); ok {
				arrays = append(arrays, arr)
			}
		}
	}

	var order []string
	groups := make(map[string][]model.Plan)
	for _, arr := range arrays {
		for _, raw := range arr {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}

			label := defaultGroupLabel
			if v, ok := firstTruthy(item, itemLabelKeys...); ok {
				label = asString(v)
			}

			dv, _ := firstPresent(item, itemDayKeys...)
			pv, _ := firstPresent(item, itemPriceKeys...)
			days, okDays := parseNumber(dv)
			price, okPrice := parseNumber(pv)
			if !okDays || !okPrice {
				continue
			}

			if _, seen := groups[label]; !seen {
				order = append(order, label)
			}
			groups[label] = append(groups[label], model.Plan{Days: toDays(days), Price: price})
		}
	}

	out := make([]model.DataOption, 0, len(order))
	for _, label := range order {
		plans := groups[label]
		if len(plans) == 0 {
			continue
		}
		sortPlans(plans)
		out = append(out, model.DataOption{Data: label, Plans: plans})
	}
	return out
}
