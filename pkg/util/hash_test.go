package util

import (
	"testing"
	"time"

	"github.com/weiwei-tsao/campus-assets-report/pkg/model"
)

func TestFingerprintAssetsIgnoresOrder(t *testing.T) {
	a := model.Asset{Description: "Laptop", Department: "IT", Location: "Lab", Cost: 55000}
	b := model.Asset{Description: "Chair", Department: "Admin", Location: "Hall", Cost: 1200}

	first := FingerprintAssets([]model.Asset{a, b})
	second := FingerprintAssets([]model.Asset{b, a})
	if first != second {
		t.Fatalf("fingerprint depends on order: %s vs %s", first, second)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(first))
	}
}

func TestFingerprintAssetsDetectsChanges(t *testing.T) {
	base := []model.Asset{{Description: "Laptop", Department: "IT", Location: "Lab", Cost: 55000}}
	changed := []model.Asset{{Description: "Laptop", Department: "IT", Location: "Lab", Cost: 55001}}
	dated := []model.Asset{{Description: "Laptop", Department: "IT", Location: "Lab", Cost: 55000,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}

	if FingerprintAssets(base) == FingerprintAssets(changed) {
		t.Fatalf("cost change not detected")
	}
	if FingerprintAssets(base) == FingerprintAssets(dated) {
		t.Fatalf("created_at change not detected")
	}
}

func TestFingerprintAssetsKeepsExactText(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Asset
	}{
		{
			"case",
			model.Asset{Description: "Laptop", Department: "physics", Location: "Lab", Cost: 10},
			model.Asset{Description: "Laptop", Department: "Physics", Location: "Lab", Cost: 10},
		},
		{
			"surrounding spaces",
			model.Asset{Description: "Laptop ", Department: "IT", Location: "Lab", Cost: 10},
			model.Asset{Description: "Laptop", Department: "IT", Location: "Lab", Cost: 10},
		},
		{
			"separator inside a field",
			model.Asset{Description: "a|b", Department: "c", Location: "", Cost: 10},
			model.Asset{Description: "a", Department: "b|c", Location: "", Cost: 10},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if AssetKey(tt.a) == AssetKey(tt.b) {
				t.Fatalf("AssetKey() collides: %q", AssetKey(tt.a))
			}
			if FingerprintAssets([]model.Asset{tt.a}) == FingerprintAssets([]model.Asset{tt.b}) {
				t.Fatalf("FingerprintAssets() collides for %q and %q", AssetKey(tt.a), AssetKey(tt.b))
			}
		})
	}
}
