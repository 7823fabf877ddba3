package leave

import "testing"

func TestApplyDeduction(t *testing.T) {
	tests := []struct {
		name          string
		balance       Balance
		requestedDays int
		isLwop        bool
		wantUsed      int
		wantLwop      int
		wantSplit     DeductionSplit
	}{
		{
			name:          "paid request charges credits in full",
			balance:       Balance{TotalCredits: 5, UsedCredits: 1},
			requestedDays: 2,
			wantUsed:      3,
			wantLwop:      0,
			wantSplit:     DeductionSplit{PTODays: 2},
		},
		{
			name:          "lwop request splits across remaining credits",
			balance:       Balance{TotalCredits: 5, UsedCredits: 3},
			requestedDays: 5,
			isLwop:        true,
			wantUsed:      5,
			wantLwop:      3,
			wantSplit:     DeductionSplit{PTODays: 2, LwopDays: 3},
		},
		{
			name:          "lwop request against exhausted balance is all unpaid",
			balance:       Balance{TotalCredits: 5, UsedCredits: 5},
			requestedDays: 4,
			isLwop:        true,
			wantUsed:      5,
			wantLwop:      4,
			wantSplit:     DeductionSplit{LwopDays: 4},
		},
		{
			name:          "negative remaining clamps the paid portion to zero",
			balance:       Balance{TotalCredits: 5, UsedCredits: 7, LwopDays: 1},
			requestedDays: 2,
			isLwop:        true,
			wantUsed:      7,
			wantLwop:      3,
			wantSplit:     DeductionSplit{LwopDays: 2},
		},
		{
			name:          "paid request is not re-checked against remaining",
			balance:       Balance{TotalCredits: 5, UsedCredits: 4},
			requestedDays: 3,
			wantUsed:      7,
			wantLwop:      0,
			wantSplit:     DeductionSplit{PTODays: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, split := ApplyDeduction(tt.balance, tt.requestedDays, tt.isLwop)
			if updated.UsedCredits != tt.wantUsed {
				t.Errorf("UsedCredits = %d, want %d", updated.UsedCredits, tt.wantUsed)
			}
			if updated.LwopDays != tt.wantLwop {
				t.Errorf("LwopDays = %d, want %d", updated.LwopDays, tt.wantLwop)
			}
			if split != tt.wantSplit {
				t.Errorf("split = %+v, want %+v", split, tt.wantSplit)
			}
			if updated.TotalCredits != tt.balance.TotalCredits {
				t.Errorf("TotalCredits changed from %d to %d", tt.balance.TotalCredits, updated.TotalCredits)
			}
		})
	}
}
