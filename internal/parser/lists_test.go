package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractListItems(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "dash bullets",
			text:     "- Graves' disease\n- Toxic adenoma\n",
			expected: []string{"Graves' disease", "Toxic adenoma"},
		},
		{
			name:     "asterisk and numbered",
			text:     "* Iodine deficiency\n1. Post-thyroidectomy\n2. Radioiodine therapy",
			expected: []string{"Iodine deficiency", "Post-thyroidectomy", "Radioiodine therapy"},
		},
		{
			name:     "short items are noise",
			text:     "- TSH\n- Other\n- Lithium therapy",
			expected: []string{"Lithium therapy"},
		},
		{
			name:     "continuation lines join the item",
			text:     "- Amiodarone can cause\n  both hyper- and hypothyroidism\n- Lithium therapy",
			expected: []string{"Amiodarone can cause\nboth hyper- and hypothyroidism", "Lithium therapy"},
		},
		{
			name:     "full-width sentence fallback",
			text:     "甲狀腺功能正常，不需要進一步的甲狀腺治療。短句。若臨床症狀持續，應考慮非甲狀腺原因。",
			expected: []string{"甲狀腺功能正常，不需要進一步的甲狀腺治療。", "若臨床症狀持續，應考慮非甲狀腺原因。"},
		},
		{
			name:     "english sentence fallback",
			text:     "Subclinical hypothyroidism is common. Too short. Recovery from illness can mimic it.",
			expected: []string{"Subclinical hypothyroidism is common.", "Recovery from illness can mimic it."},
		},
		{
			name:     "nothing recognisable",
			text:     "  short ",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractListItems(tt.text))
		})
	}
}

func TestExtractNestedItems(t *testing.T) {
	text := "- **Biotin 干擾：** 高劑量生物素可造成假性 TSH 低下\n" +
		"  - **受影響方法：** 使用 streptavidin-biotin 的免疫分析法\n" +
		"  - 其他方法不受影響的情形\n" +
		"- **Heterophile antibodies:** may cause spurious results\n" +
		"  that persist across assays\n" +
		"- plain bullet inside nested list\n" +
		"- 其他\n" +
		"  - 其他\n"

	expected := []string{
		"Biotin 干擾: 高劑量生物素可造成假性 TSH 低下",
		"  - 受影響方法: 使用 streptavidin-biotin 的免疫分析法",
		"  - 其他方法不受影響的情形",
		"Heterophile antibodies: may cause spurious results that persist across assays",
		"plain bullet inside nested list",
	}
	assert.Equal(t, expected, ExtractNestedItems(text))
}

func TestExtractNestedItems_FallsBackToFlat(t *testing.T) {
	text := "- 高齡者 TSH 參考上限較高\n- 肥胖者 TSH 可能輕度上升\n"
	assert.Equal(t, []string{"高齡者 TSH 參考上限較高", "肥胖者 TSH 可能輕度上升"}, ExtractNestedItems(text))
}

func TestExtractEvaluationSteps(t *testing.T) {
	text := "**TRAb 陽性：** 可診斷 Graves' disease\n**TRAb 陰性：** 安排甲狀腺攝碘掃描\n以區分結節性疾病\n"
	assert.Equal(t, []string{
		"TRAb 陽性: 可診斷 Graves' disease",
		"TRAb 陰性: 安排甲狀腺攝碘掃描 以區分結節性疾病",
	}, ExtractEvaluationSteps(text))
}

func TestExtractEvaluationSteps_FallsBackToFlat(t *testing.T) {
	text := "- Repeat in 6-12 months\n- Ultrasound for nodules\n"
	assert.Equal(t, []string{"Repeat in 6-12 months", "Ultrasound for nodules"}, ExtractEvaluationSteps(text))
}

func TestFirstNonEmpty(t *testing.T) {
	empty := func(string) []string { return nil }
	fixed := func(string) []string { return []string{"x"} }

	assert.Equal(t, []string{"x"}, firstNonEmpty("", empty, fixed))
	assert.Equal(t, []string{}, firstNonEmpty("", empty, empty))
	assert.NotNil(t, firstNonEmpty("", empty))
}
