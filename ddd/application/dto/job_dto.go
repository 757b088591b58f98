package dto

// AckMessage 作业受理后返回的提示
const AckMessage = "✅ Ok, processing started"

// JobAckDTO 作业受理回执，在处理开始前返回
type JobAckDTO struct {
	Message string  `json:"message"`
	Folder  string  `json:"folder"`
	Song    *string `json:"song"`
}

// NewJobAckDTO song 为空时输出 null
func NewJobAckDTO(folder, song string) *JobAckDTO {
	ack := &JobAckDTO{Message: AckMessage, Folder: folder}
	if song != "" {
		ack.Song = &song
	}
	return ack
}
