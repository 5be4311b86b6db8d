package domain

import "time"

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the pt-BR month name, e.g. "Março".
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// MonthAbbrev returns the three-letter pt-BR abbreviation, e.g. "Mar".
func MonthAbbrev(m time.Month) string {
	return string([]rune(monthNames[m-1])[:3])
}
