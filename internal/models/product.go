package models

import (
	"errors"
	"time"
)

// ErrInvalidProduct est renvoyée quand une saisie produit viole une contrainte métier.
var ErrInvalidProduct = errors.New("produit invalide")

// Variant décrit une déclinaison (taille/couleur) d'un produit, sans identité propre.
type Variant struct {
	Size      *string `json:"size"`
	Color     *string `json:"color"`
	Inventory int     `json:"inventory"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Variants    []Variant `json:"variants"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput contient les champs fournis par l'admin à la création.
type ProductInput struct {
	Name        string
	Price       float64
	Description string
	Images      []string
	Variants    []Variant
}

func (in ProductInput) Validate() error {
	if in.Price < 0 {
		return errors.Join(ErrInvalidProduct, errors.New("le prix doit être positif ou nul"))
	}
	return validateVariants(in.Variants)
}

// ProductPatch représente une mise à jour partielle : un champ nil n'est pas fourni,
// un champ non nil remplace la valeur stockée (une slice vide vide la liste).
type ProductPatch struct {
	Name        *string    `json:"name"`
	Price       *float64   `json:"price"`
	Description *string    `json:"description"`
	Images      *[]string  `json:"images"`
	Variants    *[]Variant `json:"variants"`
}

func (p ProductPatch) Validate() error {
	if p.Price != nil && *p.Price < 0 {
		return errors.Join(ErrInvalidProduct, errors.New("le prix doit être positif ou nul"))
	}
	if p.Variants != nil {
		return validateVariants(*p.Variants)
	}
	return nil
}

// IsEmpty indique qu'aucun champ n'a été fourni.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil && p.Images == nil && p.Variants == nil
}

func validateVariants(variants []Variant) error {
	for _, v := range variants {
		if v.Inventory < 0 {
			return errors.Join(ErrInvalidProduct, errors.New("l'inventaire d'une variante doit être positif ou nul"))
		}
	}
	return nil
}
