package render

import "github.com/clinsight/clinsight/pkg/models"

// Tabular passes the result set through unchanged for JSON serialization.
// The synchronous endpoint's consumers get exactly what the query projected.
func Tabular(rs models.ResultSet) models.ResultSet {
	return rs
}
