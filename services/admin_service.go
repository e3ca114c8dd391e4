package services

import (
	"errors"

	"casicasi/models"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

// AdminService is the database-backed question bank maintenance API,
// mirroring the spreadsheet-admin workflow: paginated listing, add, edit,
// delete, export. The live bank is rebuilt from active records.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

type QuestionRecordRequest struct {
	Category       string `json:"category"`
	PromptText     string `json:"prompt_text" binding:"required"`
	CorrectValue   int    `json:"correct_value"`
	RangeMin       int    `json:"range_min"`
	RangeMax       int    `json:"range_max"`
	BackgroundInfo string `json:"background_info"`
	SourceCitation string `json:"source_citation"`
	IsActive       *bool  `json:"is_active"`
}

func (r *QuestionRecordRequest) apply(rec *models.QuestionRecord) {
	rec.Category = r.Category
	rec.PromptText = r.PromptText
	rec.CorrectValue = r.CorrectValue
	rec.RangeMin = r.RangeMin
	rec.RangeMax = r.RangeMax
	rec.BackgroundInfo = r.BackgroundInfo
	rec.SourceCitation = r.SourceCitation
	if r.IsActive != nil {
		rec.IsActive = *r.IsActive
	} else {
		rec.IsActive = true
	}
	if rec.RangeMin == 0 && rec.RangeMax == 0 {
		rec.RangeMin = rec.CorrectValue - 10
		rec.RangeMax = rec.CorrectValue + 10
	}
}

// List returns one page of records plus the total count.
func (s *AdminService) List(page, perPage int) ([]models.QuestionRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 25
	}

	var total int64
	if err := s.db.Model(&models.QuestionRecord{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.QuestionRecord
	err := s.db.Order("id").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error
	return records, total, err
}

func (s *AdminService) Create(req *QuestionRecordRequest) (*models.QuestionRecord, error) {
	var rec models.QuestionRecord
	req.apply(&rec)
	if err := s.db.Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *AdminService) Update(id uint, req *QuestionRecordRequest) (*models.QuestionRecord, error) {
	var rec models.QuestionRecord
	if err := s.db.First(&rec, id).Error; err != nil {
		return nil, ErrRecordNotFound
	}
	req.apply(&rec)
	if err := s.db.Save(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *AdminService) Delete(id uint) error {
	result := s.db.Delete(&models.QuestionRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Export returns every record in the immutable bank shape, suitable for
// dumping back into a questions file.
func (s *AdminService) Export() ([]models.Question, error) {
	var records []models.QuestionRecord
	if err := s.db.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	questions := make([]models.Question, 0, len(records))
	for i := range records {
		questions = append(questions, records[i].ToQuestion())
	}
	return questions, nil
}

// ActiveQuestions loads the records that should make up the live bank.
func (s *AdminService) ActiveQuestions() ([]models.Question, error) {
	var records []models.QuestionRecord
	if err := s.db.Where("is_active = ?", true).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	questions := make([]models.Question, 0, len(records))
	for i := range records {
		questions = append(questions, records[i].ToQuestion())
	}
	return questions, nil
}

// Seed imports a question list into an empty table, used on first start
// when a database is configured but unpopulated.
func (s *AdminService) Seed(questions []models.Question) error {
	var count int64
	if err := s.db.Model(&models.QuestionRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, q := range questions {
		rec := models.QuestionRecord{
			Category:       q.Category,
			PromptText:     q.PromptText,
			CorrectValue:   q.CorrectValue,
			RangeMin:       q.RangeMin,
			RangeMax:       q.RangeMax,
			BackgroundInfo: q.BackgroundInfo,
			SourceCitation: q.SourceCitation,
			IsActive:       q.IsActive,
		}
		if err := s.db.Create(&rec).Error; err != nil {
			return err
		}
	}
	return nil
}
