// Package ir provides the value and schema types shared by every other
// package in taskboard.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the board schema and the
// dynamic field value model at the bottom of the dependency graph.
//
// Key design constraints:
//   - Field values are a sealed union (Null, Bool, Number, String, Array);
//     objects are rejected at the boundary
//   - Values are decoded through the owning column's kind at filter time,
//     never trusted from their stored shape
//   - All JSON tags use snake_case
package ir
