package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/teamtasks/domain"
	"github.com/fastygo/teamtasks/repository"
)

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository returns a Postgres-backed TeamRepository.
func NewTeamRepository(pool *pgxpool.Pool) repository.TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `
	tm.id, tm.name, tm.admin_id, tm.created_at,
	COALESCE((SELECT array_agg(m.user_id ORDER BY m.position) FROM team_members m WHERE m.team_id = tm.id), '{}')
`

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+teamColumns+` FROM teams tm WHERE tm.id = $1`, id)
	return scanTeam(row)
}

func (r *teamRepository) ListForUser(ctx context.Context, userID string) ([]domain.Team, error) {
	query := `
	SELECT ` + teamColumns + `
	FROM teams tm
	JOIN team_members me ON me.team_id = tm.id AND me.user_id = $1
	ORDER BY tm.seq ASC
	`
	rows, err := conn(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) (*domain.Team, error) {
	if team == nil {
		return nil, domain.ErrInvalidPayload
	}
	if team.ID == "" {
		team.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO teams (id, name, admin_id)
	VALUES ($1, $2, $3)
	RETURNING created_at
	`
	if err := conn(ctx, r.pool).QueryRow(ctx, query, team.ID, team.Name, team.AdminID).Scan(&team.CreatedAt); err != nil {
		return nil, err
	}
	if err := r.AddMembers(ctx, team.ID, team.Members); err != nil {
		return nil, err
	}
	return team, nil
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *teamRepository) AddMembers(ctx context.Context, teamID string, userIDs []string) error {
	const query = `
	INSERT INTO team_members (team_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (team_id, user_id) DO NOTHING
	`
	q := conn(ctx, r.pool)
	for _, userID := range userIDs {
		if _, err := q.Exec(ctx, query, teamID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *teamRepository) RemoveMembers(ctx context.Context, teamID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = ANY($2::text[])`,
		teamID, userIDs)
	return err
}

func scanTeam(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Team, error) {
	var team domain.Team
	if err := row.Scan(&team.ID, &team.Name, &team.AdminID, &team.CreatedAt, &team.Members); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}
