package workflow

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/config"
	"github.com/tawazk381-create/VM-Inventory-Optimization-App/models"
)

// NormalizeResultsPayload turns raw solver output into canonical result rows.
// Solver builds in the field disagree on shape, so this accepts a bare JSON
// list or an object wrapping one under "results", and per record accepts
// item_id|id, eoq|EOQ, reorder_point|ROP, safety_stock|SS in any letter case.
// Blank strings mean "no recommendation" and become nil. Bad records never
// poison the batch: a record without a usable item id is dropped with a
// warning, an uncoercible metric field is nulled, and when the same item
// appears twice the first record wins.
func NormalizeResultsPayload(raw []byte) ([]models.ResultRow, error) {
	records, err := decodeRecords(raw)
	if err != nil {
		return nil, err
	}

	logger := config.GetLogger()
	rows := make([]models.ResultRow, 0, len(records))
	seen := make(map[int]bool, len(records))
	for i, rec := range records {
		lowered := make(map[string]any, len(rec))
		for k, v := range rec {
			lowered[strings.ToLower(k)] = v
		}

		itemId, err := coerceInt(fieldOf(lowered, "item_id", "id"))
		if err != nil {
			logger.WithField("record", i).Warnf("dropping solver record with an unreadable item id: %v", err)
			continue
		}
		if itemId == nil || *itemId <= 0 {
			logger.WithField("record", i).Warn("dropping solver record without a usable item id")
			continue
		}
		if seen[*itemId] {
			logger.WithField("item_id", *itemId).Warn("duplicate solver record for item, keeping first")
			continue
		}

		eoq := coerceDecimalField(logger, i, *itemId, "eoq", fieldOf(lowered, "eoq"))
		rop := coerceIntField(logger, i, *itemId, "reorder_point", fieldOf(lowered, "reorder_point", "rop"))
		ss := coerceIntField(logger, i, *itemId, "safety_stock", fieldOf(lowered, "safety_stock", "ss"))

		seen[*itemId] = true
		rows = append(rows, models.ResultRow{
			ItemId:       *itemId,
			Eoq:          eoq,
			ReorderPoint: rop,
			SafetyStock:  ss,
		})
	}
	return rows, nil
}

func decodeRecords(raw []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}
	var wrapped struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("solver output is not a JSON list or a results object: %w", err)
	}
	if wrapped.Results == nil {
		return nil, fmt.Errorf("solver output has no results list")
	}
	return wrapped.Results, nil
}

// fieldOf returns the first present key, preserving the distinction between
// absent and explicit null (both normalize to nil downstream).
func fieldOf(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			return v
		}
	}
	return nil
}

// coerceDecimalField and coerceIntField null a metric that cannot be read
// instead of erroring, so one mangled field costs that recommendation only.
func coerceDecimalField(logger *logrus.Logger, record, itemId int, name string, v any) *decimal.Decimal {
	d, err := coerceDecimal(v)
	if err != nil {
		logger.WithFields(logrus.Fields{"record": record, "item_id": itemId, "field": name}).
			Warnf("ignoring unreadable metric: %v", err)
		return nil
	}
	return d
}

func coerceIntField(logger *logrus.Logger, record, itemId int, name string, v any) *int {
	n, err := coerceInt(v)
	if err != nil {
		logger.WithFields(logrus.Fields{"record": record, "item_id": itemId, "field": name}).
			Warnf("ignoring unreadable metric: %v", err)
		return nil
	}
	return n
}

func coerceDecimal(v any) (*decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		d := decimal.NewFromFloat(val)
		return &d, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return nil, err
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}

func coerceInt(v any) (*int, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		n := int(math.Round(val))
		return &n, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		n := int(math.Round(f))
		return &n, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}
