package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdjustCounter atomically adds delta to a counter column of the row with
// the given id. Decrements never take the counter below zero.
func AdjustCounter(tx *gorm.DB, model interface{}, id, column string, delta int) error {
	if delta == 0 {
		return nil
	}
	var expr clause.Expr
	if delta > 0 {
		expr = gorm.Expr(fmt.Sprintf("%s + ?", column), delta)
	} else {
		expr = gorm.Expr(fmt.Sprintf("CASE WHEN %s > ? THEN %s - ? ELSE 0 END", column, column), -delta, -delta)
	}
	return tx.Model(model).Where("id = ?", id).UpdateColumn(column, expr).Error
}

// ReadCounter loads the current value of a counter column.
func ReadCounter(tx *gorm.DB, model interface{}, id, column string) (int, error) {
	var value int
	err := tx.Model(model).Where("id = ?", id).Select(column).Scan(&value).Error
	return value, err
}
