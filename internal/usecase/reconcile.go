package usecase

import "catalog_service/internal/domain"

// ReconcileAssociations works out which lookup ids to unlink and which to link
// so that the product ends up associated with exactly the submitted ids.
// Rows are matched on LookupID: a submission never carries join row ids.
func ReconcileAssociations(current []domain.Association, submitted []int) domain.AssociationChange {
	wanted := make(map[int]bool, len(submitted))
	for _, id := range submitted {
		wanted[id] = true
	}

	var change domain.AssociationChange
	have := make(map[int]bool, len(current))
	for _, row := range current {
		if have[row.LookupID] {
			continue
		}
		have[row.LookupID] = true
		if !wanted[row.LookupID] {
			change.RemoveLookupIDs = append(change.RemoveLookupIDs, row.LookupID)
		}
	}

	for _, id := range uniqueIDs(submitted) {
		if !have[id] {
			change.AddLookupIDs = append(change.AddLookupIDs, id)
		}
	}
	return change
}

// uniqueIDs drops repeated ids, keeping first-seen order.
func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func associationsFor(ids []int) []domain.Association {
	ids = uniqueIDs(ids)
	rows := make([]domain.Association, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, domain.Association{LookupID: id})
	}
	return rows
}
