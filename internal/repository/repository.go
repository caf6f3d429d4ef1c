// Package repository contient les accès aux collections du catalogue
// (produits et administrateurs) au-dessus d'un docstore.Store.
package repository

import "errors"

// ErrNotFound est renvoyée quand l'entité référencée n'existe pas.
var ErrNotFound = errors.New("introuvable")

const (
	ProductsCollection = "products"
	AdminsCollection   = "admins"

	// listLimit borne la lecture complète du catalogue.
	listLimit = 1000
)
