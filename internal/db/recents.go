package db

import "time"

// RecentWorkspace is a workspace the user opened from this machine
type RecentWorkspace struct {
	ID        string
	Name      string
	VisitedAt time.Time
}

// TouchWorkspace records a visit, refreshing the name and timestamp
func (db *DB) TouchWorkspace(id, name string) error {
	_, err := db.Exec(`
		INSERT INTO recent_workspaces (id, name, visited_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, visited_at = excluded.visited_at
	`, id, name, time.Now().UTC())
	return err
}

// RecentWorkspaces returns the most recently visited workspaces first
func (db *DB) RecentWorkspaces(limit int) ([]RecentWorkspace, error) {
	rows, err := db.Query(`
		SELECT id, name, visited_at
		FROM recent_workspaces ORDER BY visited_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recents []RecentWorkspace
	for rows.Next() {
		var r RecentWorkspace
		if err := rows.Scan(&r.ID, &r.Name, &r.VisitedAt); err != nil {
			return nil, err
		}
		recents = append(recents, r)
	}
	return recents, rows.Err()
}

// ForgetWorkspace drops a workspace from the recent list, e.g. after it was
// deleted or left
func (db *DB) ForgetWorkspace(id string) error {
	_, err := db.Exec("DELETE FROM recent_workspaces WHERE id = ?", id)
	return err
}
