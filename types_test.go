package mealplanner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayInput_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want DayInput
	}{
		{
			name: "current names",
			in:   `{"wants_dinner":true,"has_leftovers":true,"time_limit_minutes":40}`,
			want: DayInput{WantsDinner: true, HasLeftovers: true, TimeLimitMinutes: 40},
		},
		{
			name: "legacy names",
			in:   `{"dinner":true,"dinner_leftovers":false,"dinner_time_limit":25}`,
			want: DayInput{WantsDinner: true, TimeLimitMinutes: 25},
		},
		{
			name: "current names win",
			in:   `{"wants_dinner":false,"dinner":true,"time_limit_minutes":10,"dinner_time_limit":99}`,
			want: DayInput{TimeLimitMinutes: 10},
		},
		{
			name: "empty",
			in:   `{}`,
			want: DayInput{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got DayInput
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var d DayInput
	assert.Error(t, json.Unmarshal([]byte(`{"wants_dinner":"yes"}`), &d))
}

func TestWeekRequest_Decode(t *testing.T) {
	var req WeekRequest
	require.NoError(t, json.Unmarshal([]byte(`{"meal_input":{"monday":{"dinner":true},"friday":{"wants_dinner":true,"has_leftovers":true}}}`), &req))

	assert.Len(t, req.MealInput, 2)
	assert.Equal(t, 1, req.MealInput["monday"].Servings())
	assert.Equal(t, 2, req.MealInput["friday"].Servings())
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, CategoryAromatics.Valid())
	assert.False(t, Category("frozen").Valid())
	assert.True(t, EquipmentAirFryer.Valid())
	assert.False(t, Equipment("grill").Valid())
}

func TestReplyTurn(t *testing.T) {
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "Soup"}, FinalText{Text: "Soup"}.Turn())

	req := ToolRequest{Text: "searching", Calls: nil}
	assert.Equal(t, RoleAssistant, req.Turn().Role)
	assert.Equal(t, "searching", req.Turn().Content)
}
