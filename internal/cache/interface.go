package cache

import "github.com/quantmind-br/yuqueback-go/internal/domain"

var _ domain.Cache = (*BadgerCache)(nil)
