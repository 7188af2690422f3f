package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/internal/dto"
	"github.com/aloisiojr22/op-track-cycle/internal/status"
)

func setupTestChatService() (ChatService, *testEnv) {
	env := newTestEnv()
	env.addProfile("a", status.RoleOperator, status.ApprovalApproved)
	env.addProfile("b", status.RoleSupervisor, status.ApprovalApproved)
	env.addProfile("p", status.RoleOperator, status.ApprovalPending)
	return NewChatService(env.repo, env.pub, env.clock, zap.NewNop()), env
}

func TestChatService_Send_Direct(t *testing.T) {
	svc, env := setupTestChatService()

	resp, err := svc.Send(context.Background(), "a", &dto.SendMessageRequest{ReceiverID: "b", Message: "  Bom dia  "})
	require.NoError(t, err)

	assert.Equal(t, "Bom dia", resp.Message)
	assert.Equal(t, "b", resp.ReceiverID)
	assert.False(t, resp.IsBroadcast)
	require.Len(t, env.pub.changes, 1)
	assert.ElementsMatch(t, []string{"a", "b"}, env.pub.changes[0].Users)
}

func TestChatService_Send_Broadcast(t *testing.T) {
	svc, env := setupTestChatService()

	resp, err := svc.Send(context.Background(), "b", &dto.SendMessageRequest{Broadcast: true, Message: "Aviso geral"})
	require.NoError(t, err)

	assert.True(t, resp.IsBroadcast)
	assert.Empty(t, resp.ReceiverID)
	require.Len(t, env.pub.changes, 1)
	assert.Empty(t, env.pub.changes[0].Users, "群发推送给所有人")
}

func TestChatService_Send_Validation(t *testing.T) {
	svc, env := setupTestChatService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.SendMessageRequest
		want error
	}{
		{"空消息", dto.SendMessageRequest{ReceiverID: "b", Message: "   "}, ErrMessageEmpty},
		{"超长消息", dto.SendMessageRequest{ReceiverID: "b", Message: strings.Repeat("é", 2001)}, ErrMessageTooLong},
		{"缺少接收人", dto.SendMessageRequest{Message: "oi"}, ErrReceiverRequired},
		{"发给自己", dto.SendMessageRequest{ReceiverID: "a", Message: "oi"}, ErrCannotMessageSelf},
		{"接收人未审批", dto.SendMessageRequest{ReceiverID: "p", Message: "oi"}, ErrChatUserNotFound},
		{"接收人不存在", dto.SendMessageRequest{ReceiverID: "ghost", Message: "oi"}, ErrChatUserNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(ctx, "a", &tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, env.chat.msgs)
}

func TestChatService_Send_ExactLimit(t *testing.T) {
	svc, _ := setupTestChatService()

	_, err := svc.Send(context.Background(), "a", &dto.SendMessageRequest{ReceiverID: "b", Message: strings.Repeat("é", 2000)})
	assert.NoError(t, err)
}

func TestChatService_Conversation_MarksRead(t *testing.T) {
	svc, env := setupTestChatService()
	ctx := context.Background()

	_, err := svc.Send(ctx, "b", &dto.SendMessageRequest{ReceiverID: "a", Message: "um"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, "b", &dto.SendMessageRequest{ReceiverID: "a", Message: "dois"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, "a", &dto.SendMessageRequest{ReceiverID: "b", Message: "três"})
	require.NoError(t, err)

	unread, err := svc.Unread(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread.Total)
	assert.Equal(t, int64(2), unread.BySender["b"])

	msgs, err := svc.Conversation(ctx, "a", "b", &dto.ConversationRequest{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "um", msgs[0].Message)
	assert.Equal(t, "três", msgs[2].Message)

	unread, err = svc.Unread(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, unread.Total)

	// b 的未读不受影响
	unread, err = svc.Unread(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread.Total)

	last := env.pub.changes[len(env.pub.changes)-1]
	assert.Equal(t, "update", last.Action)
}

func TestChatService_Conversation_Limit(t *testing.T) {
	svc, _ := setupTestChatService()
	ctx := context.Background()
	for _, text := range []string{"1", "2", "3"} {
		_, err := svc.Send(ctx, "a", &dto.SendMessageRequest{ReceiverID: "b", Message: text})
		require.NoError(t, err)
	}

	msgs, err := svc.Conversation(ctx, "b", "a", &dto.ConversationRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].Message)
	assert.Equal(t, "3", msgs[1].Message)
}

func TestChatService_ListContacts(t *testing.T) {
	svc, _ := setupTestChatService()
	ctx := context.Background()
	_, err := svc.Send(ctx, "b", &dto.SendMessageRequest{ReceiverID: "a", Message: "oi"})
	require.NoError(t, err)

	contacts, err := svc.ListContacts(ctx, "a")
	require.NoError(t, err)

	// 只列出其他已审批用户
	require.Len(t, contacts, 1)
	assert.Equal(t, "b", contacts[0].UserID)
	assert.Equal(t, int64(1), contacts[0].Unread)
}

func TestChatService_Broadcasts(t *testing.T) {
	svc, _ := setupTestChatService()
	ctx := context.Background()
	for _, text := range []string{"primeiro", "segundo"} {
		_, err := svc.Send(ctx, "b", &dto.SendMessageRequest{Broadcast: true, Message: text})
		require.NoError(t, err)
	}
	_, err := svc.Send(ctx, "a", &dto.SendMessageRequest{ReceiverID: "b", Message: "privado"})
	require.NoError(t, err)

	list, total, err := svc.Broadcasts(ctx, &dto.PaginationRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "segundo", list[0].Message, "最新的在前")
}
