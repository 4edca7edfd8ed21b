// Package migrations holds the storefront schema history. Each file
// registers its migrations from init(); importing the package for side
// effects makes them available to migration.New.
package migrations
