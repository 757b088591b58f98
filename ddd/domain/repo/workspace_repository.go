package repo

// WorkspaceRepository 管理作业独占的输出目录。目录只创建、列举、解析，从不删除。
type WorkspaceRepository interface {
	// Root 返回工作区根目录的绝对路径
	Root() string
	// Allocate 以作业ID创建目录；同名目录已存在时返回 errno.ErrWorkspaceCollision
	Allocate(jobID string) (string, error)
	// Resolve 解析已存在的作业目录；不存在时返回 errno.ErrNotFound
	Resolve(folderName string) (string, error)
	// ListAll 列出根目录下的直接子目录名
	ListAll() ([]string, error)
}
