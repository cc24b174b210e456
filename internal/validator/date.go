package validator

import "time"

// IsValidDate valida que la fecha tenga formato YYYY-MM-DD
func IsValidDate(date string) bool {
	if len(date) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// IsValidDateFilter acepta YYYY-MM-DD o RFC3339 (filtros after/before de órdenes)
func IsValidDateFilter(date string) bool {
	if IsValidDate(date) {
		return true
	}
	_, err := time.Parse(time.RFC3339, date)
	return err == nil
}

// NormalizeDateFilter lleva el filtro a ISO8601 completo, como lo espera la API REST
func NormalizeDateFilter(date string) string {
	if IsValidDate(date) {
		return date + "T00:00:00"
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.UTC().Format("2006-01-02T15:04:05")
	}
	return ""
}
