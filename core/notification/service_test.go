package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foe05/HGMH-App/core/notification"
	"github.com/foe05/HGMH-App/core/user"
	pushsvc "github.com/foe05/HGMH-App/services/push"
	sqlxrepos "github.com/foe05/HGMH-App/storage/database/sqlx"
	testutil "github.com/foe05/HGMH-App/tests"
)

func setup(t *testing.T) (*notification.Service, user.Repository, *pushsvc.Mock) {
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	validate, _ := testutil.NewValidator()
	push := pushsvc.NewMock()
	svc := notification.NewService(sqlxrepos.NewNotificationRepository(db), user.NewService(usrRepo), push, validate, testutil.NewLogger())
	return svc, usrRepo, push
}

func TestService_SendToUsers(t *testing.T) {
	svc, usrRepo, push := setup(t)
	ctx := context.Background()

	users := make([]user.User, 0, 20)
	for _, uname := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		usr := testutil.CreateUser(t, usrRepo, uname, "jaeger_"+uname, "", "", nil, nil, true)
		if uname != "c" {
			usr = testutil.SetFCMToken(t, usrRepo, usr, "token-"+uname)
		}
		users = append(users, usr)
	}
	push.Failing["token-e"] = true

	results := svc.SendToUsers(ctx, users, notification.Message{Title: "Info", Message: "Hallo"})
	require.Len(t, results, len(users))

	for i, res := range results {
		assert.Equal(t, users[i].ID, res.UserID)
		assert.Equal(t, users[i].Username, res.Username)
		switch res.Username {
		case "jaeger_c":
			assert.False(t, res.Success)
			assert.Equal(t, notification.ErrNoToken.Error(), res.Error)
		case "jaeger_e":
			assert.False(t, res.Success)
			assert.Equal(t, notification.ErrPushFailed.Error(), res.Error)
		default:
			assert.True(t, res.Success, res.Username)
			assert.Empty(t, res.Error)
		}
	}
	assert.Len(t, push.Sent(), len(users)-2)

	// a failed push is kept in the history
	history, err := svc.History(ctx, users[4], 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, notification.TypeInfo, history[0].Type)
	assert.False(t, history[0].IsRead)
}

func TestService_Dispatch(t *testing.T) {
	svc, usrRepo, push := setup(t)
	ctx := context.Background()

	west := testutil.CreateUser(t, usrRepo, "West", "west", "", "", nil, []int{testutil.JagdgebietWest}, true)
	west = testutil.SetFCMToken(t, usrRepo, west, "token-west")
	inaktiv := testutil.CreateUser(t, usrRepo, "Inaktiv", "inaktiv", "", "", nil, []int{testutil.JagdgebietWest}, false)
	_ = testutil.SetFCMToken(t, usrRepo, inaktiv, "token-inaktiv")

	msg := notification.Message{Title: "Drückjagd", Message: "Samstag", Type: notification.TypeErfassung, DeepLink: "erfassung:1"}

	results, err := svc.Dispatch(ctx, notification.SendRequest{Message: msg, Target: notification.TargetJagdgebiet, JagdgebietID: testutil.JagdgebietWest})
	require.NoError(t, err)
	assert.Equal(t, []notification.SendResult{{UserID: west.ID, Username: "west", Success: true}}, results)

	sent := push.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "token-west", sent[0].Token)
	assert.Equal(t, "Samstag", sent[0].Body)
	assert.Equal(t, "erfassung:1", sent[0].DeepLink)

	_, err = svc.Dispatch(ctx, notification.SendRequest{Message: msg, Target: notification.TargetJagdgebiet})
	assert.Error(t, err)

	results, err = svc.Dispatch(ctx, notification.SendRequest{Message: msg, Target: notification.TargetRole, Role: user.RoleObmann})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_MarkAsRead(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	ctx := context.Background()

	owner := testutil.SetFCMToken(t, usrRepo, testutil.CreateUser(t, usrRepo, "Owner", "owner", "", "", nil, nil, true), "token-owner")
	other := testutil.CreateUser(t, usrRepo, "Other", "other", "", "", nil, nil, true)

	n, err := svc.Send(ctx, owner, notification.Message{Title: "Info", Message: "Hallo"})
	require.NoError(t, err)

	assert.Equal(t, notification.ErrNotFound, svc.MarkAsRead(ctx, other, n.ID))
	assert.Equal(t, notification.ErrNotFound, svc.MarkAsRead(ctx, owner, 999))
	require.NoError(t, svc.MarkAsRead(ctx, owner, n.ID))

	history, err := svc.History(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsRead)
}
