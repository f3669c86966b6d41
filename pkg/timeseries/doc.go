// Package timeseries provides the column-oriented, date-indexed numeric table
// that negflo consumes and produces.
//
// A [Table] holds one strictly increasing date axis and any number of uniquely
// named columns, each with exactly one value per date. Missing values are
// stored as NaN and preserved on output.
//
// # Residuals
//
// [Residual] subtracts a modelled table from an observed table. Rows are
// aligned on the dates both tables share and columns are matched by name:
//
//	obs, _ := timeseries.ReadCSV("observed.csv", nil)
//	mod, _ := timeseries.ReadCSV("modelled.csv", nil)
//	res, err := timeseries.Residual(obs, mod)
//
// # CSV
//
// [ReadCSV] and [WriteCSV] handle the plain "Date,<col>,<col>..." layout with
// ISO dates. Empty cells and the usual NA spellings read as missing.
package timeseries
