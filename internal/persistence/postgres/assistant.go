package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/CHIDI00/healix/internal/domain"
)

// CreateConversation persists a new conversation.
func (r *Repository) CreateConversation(ctx context.Context, conv domain.Conversation) error {
	const stmt = `INSERT INTO conversations (id, tenant_id, user_id, title, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	return r.withTenant(ctx, conv.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			conv.ID, conv.TenantID, conv.UserID, conv.Title,
			conv.IsActive, conv.CreatedAt, conv.UpdatedAt,
		)
		return err
	})
}

// GetConversation fetches a conversation owned by the user.
func (r *Repository) GetConversation(ctx context.Context, tenantID, userID, id string) (*domain.Conversation, error) {
	const query = `SELECT id, tenant_id, user_id, title, is_active, created_at, updated_at
        FROM conversations WHERE tenant_id=$1 AND user_id=$2 AND id=$3`

	var conv domain.Conversation
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, tenantID, userID, id)
		return row.Scan(&conv.ID, &conv.TenantID, &conv.UserID, &conv.Title,
			&conv.IsActive, &conv.CreatedAt, &conv.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (r *Repository) ListConversations(ctx context.Context, tenantID, userID string) ([]domain.Conversation, error) {
	const query = `SELECT id, tenant_id, user_id, title, is_active, created_at, updated_at
        FROM conversations WHERE tenant_id=$1 AND user_id=$2 ORDER BY updated_at DESC`

	var conversations []domain.Conversation
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, tenantID, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var conv domain.Conversation
			if err := rows.Scan(&conv.ID, &conv.TenantID, &conv.UserID, &conv.Title,
				&conv.IsActive, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
				return err
			}
			conversations = append(conversations, conv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// UpdateConversation stores new title/active state for a conversation.
func (r *Repository) UpdateConversation(ctx context.Context, tenantID string, conv domain.Conversation) error {
	const stmt = `UPDATE conversations SET title=$1, is_active=$2, updated_at=$3
        WHERE tenant_id=$4 AND id=$5`
	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt, conv.Title, conv.IsActive, conv.UpdatedAt, tenantID, conv.ID)
		return err
	})
}

// DeleteConversation removes a conversation; its messages cascade.
func (r *Repository) DeleteConversation(ctx context.Context, tenantID, conversationID string) error {
	const stmt = `DELETE FROM conversations WHERE tenant_id=$1 AND id=$2`
	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt, tenantID, conversationID)
		return err
	})
}

// AppendMessage stores a message and bumps the conversation's updated_at.
func (r *Repository) AppendMessage(ctx context.Context, tenantID string, msg domain.ConversationMessage) error {
	const insertMsg = `INSERT INTO conversation_messages (id, conversation_id, role, content, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	const touchConv = `UPDATE conversations SET updated_at=$1 WHERE id=$2`

	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertMsg,
			msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, touchConv, msg.CreatedAt, msg.ConversationID)
		return err
	})
}

// ListMessages returns the newest messages of a conversation in
// chronological order. With limit > 0 only the most recent limit messages
// are returned.
func (r *Repository) ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	query := `SELECT id, conversation_id, role, content, created_at
        FROM conversation_messages WHERE conversation_id=$1 ORDER BY created_at DESC, id DESC`
	args := []interface{}{conversationID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var messages []domain.ConversationMessage
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var msg domain.ConversationMessage
			if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	// Fetched newest-first for the LIMIT; callers want oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CreateInsight persists a generated insight.
func (r *Repository) CreateInsight(ctx context.Context, insight domain.HealthInsight) error {
	const stmt = `INSERT INTO health_insights (id, tenant_id, user_id, insight_type, title, content, is_read, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	return r.withTenant(ctx, insight.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			insight.ID, insight.TenantID, insight.UserID, insight.Type,
			insight.Title, insight.Content, insight.IsRead, insight.CreatedAt,
		)
		return err
	})
}

// ListInsights returns the user's insights newest-first, optionally filtered
// by type.
func (r *Repository) ListInsights(ctx context.Context, tenantID, userID, insightType string, limit int) ([]domain.HealthInsight, error) {
	query := `SELECT id, tenant_id, user_id, insight_type, title, content, is_read, created_at
        FROM health_insights WHERE tenant_id=$1 AND user_id=$2`
	args := []interface{}{tenantID, userID}
	if insightType != "" {
		query += ` AND insight_type=$3`
		args = append(args, insightType)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	var insights []domain.HealthInsight
	err := r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var insight domain.HealthInsight
			if err := rows.Scan(&insight.ID, &insight.TenantID, &insight.UserID, &insight.Type,
				&insight.Title, &insight.Content, &insight.IsRead, &insight.CreatedAt); err != nil {
				return err
			}
			insights = append(insights, insight)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return insights, nil
}

// MarkInsightsRead flags the given insights as read.
func (r *Repository) MarkInsightsRead(ctx context.Context, tenantID, userID string, ids []string) error {
	const stmt = `UPDATE health_insights SET is_read=TRUE
        WHERE tenant_id=$1 AND user_id=$2 AND id = ANY($3)`
	return r.withTenant(ctx, tenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt, tenantID, userID, ids)
		return err
	})
}
