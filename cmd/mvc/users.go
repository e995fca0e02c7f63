package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coderi421/mvc"
	"github.com/coderi421/mvc/orm"
	"github.com/coderi421/mvc/session"
)

const (
	usersPerPage = 10
	flashNotice  = "notice"
)

// User users 表
type User struct {
	ID    int64 `orm:"column=id,primary_key=true"`
	Name  string
	Email string
	Age   int
}

func (User) TableName() string {
	return "users"
}

type userController struct {
	db        *orm.DB
	users     *orm.Model
	sessions  *session.Manager
	logger    *slog.Logger
	errorPath string
}

func newUserController(db *orm.DB, sessions *session.Manager, logger *slog.Logger, errorPath string) (*userController, error) {
	users, err := orm.NewModelFor[User](db)
	if err != nil {
		return nil, err
	}
	return &userController{
		db:        db,
		users:     users,
		sessions:  sessions,
		logger:    logger,
		errorPath: errorPath,
	}, nil
}

type indexView struct {
	Users  []*User
	Page   *orm.Page
	Notice string
}

// Index GET /users?page=2
func (c *userController) Index(ctx *mvc.Context) {
	page, err := ctx.QueryValue("page").ToInt(orm.DefaultPage)
	if err != nil || page < 1 {
		ctx.Redirect("/users")
		return
	}
	p, err := c.users.Query().OrderBy(c.users.PrimaryKey(), orm.ASC).
		Paginate(ctx.Req.Context(), usersPerPage, page)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	users, err := orm.ScanAs[User](c.db, p.Data)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	notice, err := c.sessions.PullFlash(ctx, flashNotice)
	if err != nil {
		c.logger.Warn("mvc: 读取闪存消息失败", slog.Any("err", err))
	}
	c.render(ctx, "users/index", indexView{Users: users, Page: p, Notice: notice})
}

// Show GET /users/{id}，用户不存在的时候回到列表页并提示
func (c *userController) Show(ctx *mvc.Context) {
	id, err := ctx.PathValue("id").ToInt64()
	if err != nil {
		c.notFound(ctx, ctx.PathParams["id"])
		return
	}
	user, err := c.find(ctx, id)
	if errors.Is(err, orm.ErrNoRows) {
		c.notFound(ctx, ctx.PathParams["id"])
		return
	}
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.render(ctx, "users/show", user)
}

// APIIndex GET /api/users?page=1&per_page=10
func (c *userController) APIIndex(ctx *mvc.Context) {
	page, err := ctx.QueryValue("page").ToInt(orm.DefaultPage)
	if err != nil {
		c.respErr(ctx, http.StatusBadRequest, err)
		return
	}
	perPage, err := ctx.QueryValue("per_page").ToInt(orm.DefaultPerPage)
	if err != nil {
		c.respErr(ctx, http.StatusBadRequest, err)
		return
	}
	p, err := c.users.Query().OrderBy(c.users.PrimaryKey(), orm.ASC).
		Paginate(ctx.Req.Context(), perPage, page)
	if errors.Is(err, orm.ErrInvalidPage) || errors.Is(err, orm.ErrInvalidPerPage) {
		c.respErr(ctx, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		c.respErr(ctx, http.StatusInternalServerError, err)
		return
	}
	_ = ctx.RespJSONOK(p)
}

// APIShow GET /api/users/{id}
func (c *userController) APIShow(ctx *mvc.Context) {
	id, err := ctx.PathValue("id").ToInt64()
	if err != nil {
		c.respErr(ctx, http.StatusBadRequest, err)
		return
	}
	row, err := c.users.Find(ctx.Req.Context(), id)
	if errors.Is(err, orm.ErrNoRows) {
		c.respErr(ctx, http.StatusNotFound, err)
		return
	}
	if err != nil {
		c.respErr(ctx, http.StatusInternalServerError, err)
		return
	}
	_ = ctx.RespJSONOK(row)
}

func (c *userController) find(ctx *mvc.Context, id int64) (*User, error) {
	row, err := c.users.Find(ctx.Req.Context(), id)
	if err != nil {
		return nil, err
	}
	users, err := orm.ScanAs[User](c.db, []orm.Row{row})
	if err != nil {
		return nil, err
	}
	return users[0], nil
}

func (c *userController) notFound(ctx *mvc.Context, id string) {
	if err := c.sessions.Flash(ctx, flashNotice, fmt.Sprintf("用户 %s 不存在", id)); err != nil {
		c.logger.Warn("mvc: 写入闪存消息失败", slog.Any("err", err))
	}
	ctx.Redirect("/users")
}

func (c *userController) render(ctx *mvc.Context, view string, data any) {
	if err := ctx.Render(view, data); err != nil {
		c.logger.Error("mvc: 渲染页面失败", slog.String("view", view), slog.Any("err", err))
	}
}

// fail 记录错误并跳转到错误页
func (c *userController) fail(ctx *mvc.Context, err error) {
	c.logger.ErrorContext(ctx.Req.Context(), "mvc: 处理请求失败",
		slog.String("route", ctx.MatchedRoute), slog.String("request_id", ctx.RequestID), slog.Any("err", err))
	ctx.Redirect(c.errorPath)
}

func (c *userController) respErr(ctx *mvc.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		c.logger.ErrorContext(ctx.Req.Context(), "mvc: 处理请求失败",
			slog.String("route", ctx.MatchedRoute), slog.Any("err", err))
		err = errors.New(http.StatusText(code))
	}
	_ = ctx.RespJSON(code, map[string]string{"error": err.Error()})
}
