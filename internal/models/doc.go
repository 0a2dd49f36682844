// Package models defines the core domain models for SettleUp.
//
// # Models
//
//   - User: Registered account that creates and owns groups
//   - Group: A named set of members sharing expenses, owned by its creator
//   - Member: A person inside a group (just a name, no account required)
//   - Expense: A shared cost with the payments members made toward it
//   - Payment: One member's contribution to an expense
//
// Settlements (who pays whom) are never stored. They are recomputed from the
// group's members and expenses on every read; see package calculator.
//
// # Design Principles
//
// 1. **Names, not accounts**: members are identified by an opaque ID and a display name
// 2. **Exact money**: amounts are decimal.Decimal, never float64
// 3. **Avoid circular references**: use ID strings instead of pointers for relationships
// 4. **Guests share the model**: guest sessions store the same types in memory
package models
