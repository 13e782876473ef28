package service

import (
	"testing"

	"github.com/cellar-tracker/internal/types"
	"github.com/stretchr/testify/assert"
)

func validInput() *AddWineInput {
	return &AddWineInput{
		Producer: "Chateau Margaux",
		WineName: "Margaux",
		WineType: types.WineTypeRed,
		Quantity: 1,
	}
}

func TestAddWineInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *AddWineInput)
		wantErr string
	}{
		{
			name:   "valid input",
			mutate: func(in *AddWineInput) {},
		},
		{
			name:    "empty producer",
			mutate:  func(in *AddWineInput) { in.Producer = "  " },
			wantErr: "producer",
		},
		{
			name:    "empty wine name",
			mutate:  func(in *AddWineInput) { in.WineName = "" },
			wantErr: "wineName",
		},
		{
			name:    "unknown wine type",
			mutate:  func(in *AddWineInput) { in.WineType = "orange" },
			wantErr: "wineType",
		},
		{
			name:   "wine type may be omitted",
			mutate: func(in *AddWineInput) { in.WineType = "" },
		},
		{
			name: "rating above scale",
			mutate: func(in *AddWineInput) {
				rating := 5.5
				in.Rating = &rating
			},
			wantErr: "rating",
		},
		{
			name: "rating on boundary",
			mutate: func(in *AddWineInput) {
				rating := 5.0
				in.Rating = &rating
			},
		},
		{
			name:    "negative quantity",
			mutate:  func(in *AddWineInput) { in.Quantity = -1 },
			wantErr: "quantity",
		},
		{
			name:   "zero quantity is a wishlist entry",
			mutate: func(in *AddWineInput) { in.Quantity = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)

			err := in.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidWineType(t *testing.T) {
	for _, wt := range []types.WineType{
		types.WineTypeRed, types.WineTypeWhite, types.WineTypeRose,
		types.WineTypeSparkling, types.WineTypeDessert,
	} {
		assert.True(t, validWineType(wt), string(wt))
	}
	assert.False(t, validWineType("orange"))
	assert.False(t, validWineType(""))
}
