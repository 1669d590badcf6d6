// Package hcl provides the concrete HCL implementation of the config.Loader
// interface, along with the conversions between cty values and the plain Go
// values stored in the task database.
package hcl
