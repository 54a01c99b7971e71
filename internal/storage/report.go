package storage

import (
	"context"
	"fmt"
)

// ReportQuery joins every fact row with its procedure and provider details.
const ReportQuery = `SELECT FactDiagnosis.*,
       DimProcedure.procedure_description,
       DimProvider.provider_org_name,
       DimProvider.provider_last_name
FROM FactDiagnosis
LEFT JOIN DimProcedure ON FactDiagnosis.procedure_code = DimProcedure.procedure_code
LEFT JOIN DimProvider ON FactDiagnosis.provider_id = DimProvider.provider_id`

// Report runs ReportQuery against repo.
func Report(ctx context.Context, repo Repository) (ResultSet, error) {
	rs, err := repo.Query(ctx, ReportQuery)
	if err != nil {
		return ResultSet{}, fmt.Errorf("report: %w", err)
	}
	return rs, nil
}
