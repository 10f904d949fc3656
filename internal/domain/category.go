package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnnamedPlaceholder отображается вместо пустого названия.
const UnnamedPlaceholder = "Unnamed"

// Category описывает узел дерева категорий.
// ProductCount и ChildrenCount вычисляются при каждом чтении и не хранятся.
type Category struct {
	ID          uuid.UUID
	Name        *string
	Slug        string
	Description *string
	ParentID    *uuid.UUID // nil — корень
	Level       int        // 1 для корня, иначе уровень родителя + 1
	Locale      Locale
	ImageURL    *string

	ProductCount  int
	ChildrenCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName возвращает название или заглушку.
func (c *Category) DisplayName() string {
	if c.Name == nil || *c.Name == "" {
		return UnnamedPlaceholder
	}
	return *c.Name
}

func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// SiblingsKey — ключ списка, в котором узел лежит вместе с братьями (список детей его родителя).
func (c *Category) SiblingsKey() ChildrenKey {
	return KeyFor(c.ParentID, c.Locale)
}

// ChildrenKey — ключ списка непосредственных детей узла.
func (c *Category) ChildrenKey() ChildrenKey {
	return ChildrenKey{ParentID: c.ID, Locale: c.Locale}
}

// ChildrenKey — ключ кэша детей: (узел, локаль). Корневой уровень адресуется uuid.Nil.
type ChildrenKey struct {
	ParentID uuid.UUID
	Locale   Locale
}

// RootKey — ключ корневого уровня локали.
func RootKey(locale Locale) ChildrenKey {
	return ChildrenKey{ParentID: uuid.Nil, Locale: locale}
}

// KeyFor строит ключ по nullable-ссылке на родителя.
func KeyFor(parentID *uuid.UUID, locale Locale) ChildrenKey {
	if parentID == nil {
		return RootKey(locale)
	}
	return ChildrenKey{ParentID: *parentID, Locale: locale}
}

func (k ChildrenKey) IsRoot() bool {
	return k.ParentID == uuid.Nil
}

// Parent возвращает nil для корневого уровня.
func (k ChildrenKey) Parent() *uuid.UUID {
	if k.IsRoot() {
		return nil
	}
	id := k.ParentID
	return &id
}

func (k ChildrenKey) String() string {
	if k.IsRoot() {
		return "root/" + k.Locale.String()
	}
	return k.ParentID.String() + "/" + k.Locale.String()
}
