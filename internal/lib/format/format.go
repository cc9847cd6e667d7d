// Package format преобразует поля заметок о расходах в отображаемый вид:
// дату в короткий французский формат, статус в подпись, строки в целые числа.
package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/billed-app/billed/internal/models"
)

// ErrInvalidDate возвращается, когда дату не удалось разобрать.
var ErrInvalidDate = errors.New("invalid date")

var layouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006-1-2",
}

// Три первые буквы французских коротких названий месяцев.
var months = [...]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jui", "Jui", "Aoû", "Sep", "Oct", "Nov", "Déc"}

// ParseDate разбирает дату заметки в одном из допустимых форматов.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Date возвращает дату в виде "4 Avr. 04": день без ведущего нуля,
// месяц из трёх букв с точкой, год двумя цифрами.
func Date(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s. %02d", t.Day(), months[t.Month()-1], t.Year()%100), nil
}

// Status возвращает подпись статуса. Пустой статус считается ожидающим,
// неизвестный возвращается как есть.
func Status(status models.BillStatus) string {
	switch status {
	case models.BillStatusPending, "":
		return "En attente"
	case models.BillStatusAccepted:
		return "Accepté"
	case models.BillStatusRefused:
		return "Refusé"
	default:
		return string(status)
	}
}

// ParseInt разбирает ведущее целое число строки ("12abc" -> 12).
// ok=false, если строка не начинается с числа.
func ParseInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Pct разбирает процент НДС; 20 при неразборчивом или нулевом значении.
func Pct(s string) int {
	if n, ok := ParseInt(s); ok && n != 0 {
		return n
	}
	return models.DefaultPct
}

// Amount разбирает сумму; 0 при неразборчивом значении.
func Amount(s string) int {
	n, _ := ParseInt(s)
	return n
}
