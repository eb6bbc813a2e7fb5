package assess_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"doklado/internal/assess"
	"doklado/internal/domain"
)

func TestAssess_SimpleReceipt(t *testing.T) {
	text := "Paragon\nKáva 65,00\nCelkem 65,00 Kč"
	assert.Equal(t, domain.ComplexitySimple, assess.Assess(text))
}

func TestAssess_MediumInvoice(t *testing.T) {
	// Four item rows and two distinct tax rates.
	text := strings.Join([]string{
		"FAKTURA 2024-010",
		"1 ks Klávesnice 1 200,00",
		"2 ks Myš 450,00",
		"1 ks Monitor 5 600,00",
		"3 ks Kabel 150,00",
		"DPH 21 % 1 554,00",
		"DPH 12 % 18,00",
	}, "\n")
	assert.Equal(t, domain.ComplexityMedium, assess.Assess(text))
}

func TestAssess_ComplexInvoice(t *testing.T) {
	// Many item rows, three tax rates and a discount marker.
	rows := []string{"FAKTURA 2024-011"}
	items := []string{
		"1 ks Server 45 000,00",
		"2 ks Disk 3 200,00",
		"1 ks Paměť 2 100,00",
		"4 ks Kabel 150,00",
		"1 ks Licence 12 000,00",
		"2 ks Podpora 8 000,00",
		"1 ks Instalace 5 000,00",
	}
	rows = append(rows, items...)
	rows = append(rows,
		"Sleva 10 % -7 545,00",
		"DPH 21 % 13 000,00",
		"DPH 12 % 500,00",
	)
	assert.Equal(t, domain.ComplexityComplex, assess.Assess(strings.Join(rows, "\n")))
}

func TestAssess_LongTextAddsPoint(t *testing.T) {
	// A long document with borderline structure tips from simple to medium.
	base := strings.Join([]string{
		"FAKTURA 2024-012",
		"1 ks Služba 1 000,00",
		"2 ks Služba 2 000,00",
		"3 ks Služba 3 000,00",
	}, "\n")
	assert.Equal(t, domain.ComplexitySimple, assess.Assess(base))

	padded := base + "\n" + strings.Repeat("obchodní podmínky ", 100)
	assert.Equal(t, domain.ComplexityMedium, assess.Assess(padded))
}

func TestAssess_Deterministic(t *testing.T) {
	text := "FAKTURA\n1 ks Zboží 500,00\nDPH 21 % 105,00\nCelkem 605,00"
	first := assess.Assess(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, assess.Assess(text))
	}
}
