package inspect

import (
	"context"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/driver"
)

// BaseReflector implements every Reflector method as unsupported.
// Dialect implementations embed it and override the operations their
// backend actually provides.
type BaseReflector struct{}

func (BaseReflector) Columns(context.Context, driver.Conn, string, string) ([]Column, error) {
	return nil, seam.Unsupportedf("column reflection")
}

func (BaseReflector) PrimaryKeyConstraint(context.Context, driver.Conn, string, string) (PrimaryKey, error) {
	return PrimaryKey{}, seam.Unsupportedf("primary key reflection")
}

func (BaseReflector) ForeignKeys(context.Context, driver.Conn, string, string) ([]ForeignKey, error) {
	return nil, seam.Unsupportedf("foreign key reflection")
}

func (BaseReflector) Indexes(context.Context, driver.Conn, string, string) ([]Index, error) {
	return nil, seam.Unsupportedf("index reflection")
}

func (BaseReflector) UniqueConstraints(context.Context, driver.Conn, string, string) ([]UniqueConstraint, error) {
	return nil, seam.Unsupportedf("unique constraint reflection")
}

func (BaseReflector) CheckConstraints(context.Context, driver.Conn, string, string) ([]CheckConstraint, error) {
	return nil, seam.Unsupportedf("check constraint reflection")
}

func (BaseReflector) TableOptions(context.Context, driver.Conn, string, string) (map[string]any, error) {
	return nil, seam.Unsupportedf("table options reflection")
}

func (BaseReflector) TableComment(context.Context, driver.Conn, string, string) (TableComment, error) {
	return TableComment{}, seam.Unsupportedf("table comments")
}

func (BaseReflector) TableNames(context.Context, driver.Conn, string) ([]string, error) {
	return nil, seam.Unsupportedf("table name listing")
}

func (BaseReflector) TempTableNames(context.Context, driver.Conn, string) ([]string, error) {
	return nil, seam.Unsupportedf("temporary table name listing")
}

func (BaseReflector) ViewNames(context.Context, driver.Conn, string) ([]string, error) {
	return nil, seam.Unsupportedf("view name listing")
}

func (BaseReflector) TempViewNames(context.Context, driver.Conn, string) ([]string, error) {
	return nil, seam.Unsupportedf("temporary view name listing")
}

func (BaseReflector) ViewDefinition(context.Context, driver.Conn, string, string) (string, error) {
	return "", seam.Unsupportedf("view definitions")
}

func (BaseReflector) SequenceNames(context.Context, driver.Conn, string) ([]string, error) {
	return nil, seam.Unsupportedf("sequences")
}

func (BaseReflector) HasTable(context.Context, driver.Conn, string, string) (bool, error) {
	return false, seam.Unsupportedf("table existence checks")
}

func (BaseReflector) HasIndex(context.Context, driver.Conn, string, string, string) (bool, error) {
	return false, seam.Unsupportedf("index existence checks")
}

func (BaseReflector) HasSequence(context.Context, driver.Conn, string, string) (bool, error) {
	return false, seam.Unsupportedf("sequences")
}

var _ Reflector = BaseReflector{}
