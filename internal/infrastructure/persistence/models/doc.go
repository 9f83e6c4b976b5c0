// Package models contains GORM persistence models that map to database tables.
// Domain aggregates carry no GORM tags; each model converts to and from its
// aggregate with ToDomain/FromDomain and repositories only ever write models.
//
// Files:
// - base.go: BaseModel and AggregateModel (optimistic version column)
// - identity.go: profiles
// - catalog.go: media outlets and niche rules
// - cart.go: cart items
// - checkout.go: checkout sessions
// - order.go: orders, order items and the order number sequence
// - notification.go: in-app notifications
package models
